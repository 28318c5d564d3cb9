package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/scribe/config"
	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/renderer"
	canvasrenderer "github.com/ByLCY/scribe/renderer/canvas"
	"github.com/ByLCY/scribe/renderer/raster"
	"github.com/ByLCY/scribe/textlayout"
)

func main() {
	input := flag.String("in", "examples/demo.txt", "文本或段落描述(.dsl)文件路径")
	cfgPath := flag.String("config", "", "TOML 配置文件路径")
	output := flag.String("out", "output/demo.pdf", "输出路径，.pdf 或 .png")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到文本模板的 JSON 数据")
	flag.Parse()

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	cfg := &config.File{}
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
	}

	reg := fonts.NewRegistry()
	if err := cfg.RegisterFonts(reg); err != nil {
		log.Fatalf("加载字体失败: %v", err)
	}
	r, err := newRenderer(*output, reg, cfg)
	if err != nil {
		log.Fatalf("创建渲染器失败: %v", err)
	}
	if err := run(*input, *output, *debug, inputData, reg, cfg, r); err != nil {
		log.Fatalf("生成输出失败: %v", err)
	}
	fmt.Printf("已生成：%s\n", *output)
}

// newRenderer 按输出扩展名选择后端。
func newRenderer(outputPath string, reg *fonts.Registry, cfg *config.File) (renderer.Renderer, error) {
	switch ext := strings.ToLower(filepath.Ext(outputPath)); ext {
	case ".png":
		opts, err := cfg.RasterOptions()
		if err != nil {
			return nil, err
		}
		return raster.New(reg, opts), nil
	case ".pdf", "":
		opts, err := cfg.CanvasOptions()
		if err != nil {
			return nil, err
		}
		return canvasrenderer.NewRendererWithOptions(reg, opts), nil
	default:
		return nil, fmt.Errorf("不支持的输出格式 %s", ext)
	}
}

// run 串联读取、配置、布局与渲染。
func run(inputPath, outputPath, debugPath string, data any, reg *fonts.Registry, cfg *config.File, r renderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开输入文件 %s: %w", inputPath, err)
	}

	tl := textlayout.New(reg, nil, textlayout.DefaultOptions())
	defer tl.Close()
	if err := cfg.Apply(tl); err != nil {
		return fmt.Errorf("应用配置失败: %w", err)
	}

	if strings.EqualFold(filepath.Ext(inputPath), ".dsl") {
		desc, err := dsl.ParseDescription(strings.NewReader(string(raw)))
		if err != nil {
			return fmt.Errorf("解析段落描述失败: %w", err)
		}
		// 配置作为底稿，描述只覆盖它设置的部分
		if err := tl.Import(desc, textlayout.Merge); err != nil {
			return fmt.Errorf("导入段落描述失败: %w", err)
		}
	} else {
		tl.SetTextTemplate(strings.TrimRight(string(raw), "\r\n"), data)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	out, err := r.Render(tl)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	// 渲染器已设置设备，调试树与输出使用同一套度量
	if debugPath != "" {
		if err := writeDebug(tl, debugPath); err != nil {
			return err
		}
	}
	return nil
}

func writeDebug(tl *textlayout.TextLayout, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := tl.WriteDebugJSON(debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
