package renderer

import "github.com/ByLCY/scribe/textlayout"

// Renderer 将文本布局输出为最终文件，例如 PDF 或图像。
// Render 会把自身的度量设备装入 tl，再返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(tl *textlayout.TextLayout) ([]byte, error)
}
