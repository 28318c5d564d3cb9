package canvasrenderer

import (
	"bytes"
	"math"
	"testing"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/textlayout"
)

func newLayout(t *testing.T, r *Renderer, reg *fonts.Registry, text string, mutate func(o *textlayout.Options)) *textlayout.TextLayout {
	t.Helper()
	opts := textlayout.DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	tl := textlayout.New(reg, r, opts)
	tl.SetText(text)
	t.Cleanup(tl.Close)
	return tl
}

func TestSessionMeasuresGoFont(t *testing.T) {
	reg := fonts.NewRegistry()
	r := NewRenderer(reg)
	f := reg.Font(layout.FontSpec{Family: "Go", Size: 12})
	defer f.Release()

	s := r.Begin()
	defer s.End()
	if s.SnapToPixels() {
		t.Fatalf("canvas 后端不应按像素取整")
	}
	if s.Ascent(f) <= 0 || s.Descent(f) <= 0 {
		t.Fatalf("字体上升/下降部应为正数: ascent=%g descent=%g", s.Ascent(f), s.Descent(f))
	}
	w := s.MeasureText(f, "hello")
	offs := s.CharOffsets(f, "hello")
	if len(offs) != 5 {
		t.Fatalf("期望 5 个字符偏移，实际 %d", len(offs))
	}
	for i := 1; i < len(offs); i++ {
		if offs[i] < offs[i-1] {
			t.Fatalf("字符偏移应单调递增: %v", offs)
		}
	}
	if diff := math.Abs(offs[4] - w); diff > 1e-6 {
		t.Fatalf("末尾偏移应等于整体宽度: offset=%g width=%g", offs[4], w)
	}
	if cw := s.CharWidth(f, 'h'); math.Abs(cw-offs[0]) > 1e-6 {
		t.Fatalf("单字宽度应等于首个偏移: %g vs %g", cw, offs[0])
	}
}

func TestLayoutWrapsWithCanvasMetrics(t *testing.T) {
	reg := fonts.NewRegistry()
	r := NewRenderer(reg)
	// 宽度单位为设备单位（72 DPI 下即 pt）
	tl := newLayout(t, r, reg, "hello world again", func(o *textlayout.Options) { o.MaxWidth = 40 })

	tree, err := tl.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Paragraphs) != 1 || len(tree.Paragraphs[0].Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %+v", tree.Paragraphs)
	}
}

func TestNewlinesStartParagraphs(t *testing.T) {
	reg := fonts.NewRegistry()
	r := NewRenderer(reg)
	tl := newLayout(t, r, reg, "foo\n\nbar", func(o *textlayout.Options) { o.MaxWidth = 100 })

	tree, err := tl.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs including blank, got %d", len(tree.Paragraphs))
	}
	if p := tree.Paragraphs[1]; p.End-p.Start != 1 {
		t.Fatalf("expected middle paragraph to hold only its separator, got [%d,%d)", p.Start, p.End)
	}
}

// TestLineHeightsInvariant 验证：
// 1) 相邻行基线间距等于按倍数解析的行高；
// 2) 各行的上升/下降部一致（同一字体）。
func TestLineHeightsInvariant(t *testing.T) {
	reg := fonts.NewRegistry()
	r := NewRenderer(reg)
	content := "longlonglong longlonglong longlonglong longlonglong longlonglong"
	tl := newLayout(t, r, reg, content, func(o *textlayout.Options) {
		o.MaxWidth = 110
		o.Paragraph.LineHeight = layout.LineHeightFactor(1.3)
	})

	tree, err := tl.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	lines := tree.Paragraphs[0].Lines
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines for invariant test, got %d", len(lines))
	}
	first := lines[0]
	natural := first.Ascent + first.Descent
	if natural <= 0 {
		t.Fatalf("invalid text height: %g", natural)
	}
	const eps = 0.05 + 1e-9 // TWIPS 取整误差
	want := natural * 1.3
	for i := 1; i < len(lines); i++ {
		gap := lines[i].Origin.Y - lines[i-1].Origin.Y
		if diff := math.Abs(gap - want); diff > eps {
			t.Fatalf("line %d baseline gap mismatch: got=%g want=%g diff=%g", i, gap, want, diff)
		}
		if lines[i].Ascent != first.Ascent || lines[i].Descent != first.Descent {
			t.Fatalf("line %d metrics differ from first line", i)
		}
	}
}

func TestRenderWritesPDF(t *testing.T) {
	reg := fonts.NewRegistry()
	r := NewRendererWithOptions(reg, Options{Margin: 5})
	tl := newLayout(t, r, reg, "Hello, PDF", nil)
	tl.SetMeta("title", "Greeting")
	tl.ApplyStyle(0, 5, layout.Style{
		Set:        layout.AttrBold | layout.AttrBackground | layout.AttrUnderline,
		Bold:       true,
		Background: layout.Color{R: 255, G: 255, A: 255},
		Underline:  true,
	})

	out, err := r.Render(tl)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", out[:min(8, len(out))])
	}
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil layout")
	}
}

func TestUnknownFamilyFallsBack(t *testing.T) {
	r := NewRenderer(fonts.NewRegistry())
	fam, _, err := r.ensureFontFamily(layout.FontSpec{Family: "NoSuchFamily", Size: 12})
	if err != nil || fam == nil {
		t.Fatalf("expected fallback family, got err=%v", err)
	}
}
