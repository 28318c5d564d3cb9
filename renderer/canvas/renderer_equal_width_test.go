package canvasrenderer

import (
	"testing"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/textlayout"
)

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	reg := fonts.NewRegistry()
	r := NewRenderer(reg)

	first := "SAMPLE-A"
	// 用无限宽度先测量第一行宽度
	measure := newLayout(t, r, reg, first, nil)
	box, ok := measure.TypographicBounds(layout.Point{})
	if !ok {
		t.Fatalf("measure failed")
	}
	limit := box.Dx()
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	// 构造恰好等宽 + 显式换行 + 下一行内容
	tl := newLayout(t, r, reg, first+"\n"+"SAMPLE-B", func(o *textlayout.Options) { o.MaxWidth = limit })
	tree, err := tl.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if got := len(tree.Paragraphs); got != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", got)
	}
	for i, p := range tree.Paragraphs {
		if len(p.Lines) != 1 {
			t.Fatalf("paragraph %d: expected 1 line without blank, got %d", i, len(p.Lines))
		}
		if p.Lines[0].Overflow {
			t.Fatalf("paragraph %d overflowed at its natural width", i)
		}
	}
}
