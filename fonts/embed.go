package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily is used for unknown family names.
const DefaultFamily = "Go"

// builtin 按文件名索引内置的 Go 字体。
var builtin = map[string][]byte{
	"Go-Regular.ttf":         goregular.TTF,
	"Go-Bold.ttf":            gobold.TTF,
	"Go-Italic.ttf":          goitalic.TTF,
	"Go-BoldItalic.ttf":      gobolditalic.TTF,
	"Go-Mono.ttf":            gomono.TTF,
	"Go-Mono-Bold.ttf":       gomonobold.TTF,
	"Go-Mono-Italic.ttf":     gomonoitalic.TTF,
	"Go-Mono-BoldItalic.ttf": gomonobolditalic.TTF,
}

// Load 返回内置字体的字节数据，path 可写为 "embed:Go-Regular.ttf" 或直接 "Go-Regular.ttf"。
func Load(path string) ([]byte, error) {
	name := strings.TrimPrefix(path, "embed:")
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// BuiltinFile returns the built-in file name for a family and style.
// Unknown families map to DefaultFamily.
func BuiltinFile(family string, bold, italic bool) string {
	prefix := "Go"
	if strings.EqualFold(strings.TrimSpace(family), "Go Mono") {
		prefix = "Go-Mono"
	}
	switch {
	case bold && italic:
		if prefix == "Go" {
			return "Go-BoldItalic.ttf"
		}
		return prefix + "-BoldItalic.ttf"
	case bold:
		return prefix + "-Bold.ttf"
	case italic:
		return prefix + "-Italic.ttf"
	}
	if prefix == "Go" {
		return "Go-Regular.ttf"
	}
	return prefix + ".ttf"
}
