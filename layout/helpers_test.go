package layout

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// fixedFont is a refcounted font handle backed by a shared counter.
type fixedFont struct {
	spec FontSpec
	refs *int
}

func (f *fixedFont) Spec() FontSpec { return f.spec }
func (f *fixedFont) Retain() Font   { *f.refs++; return f }
func (f *fixedFont) Release()       { *f.refs-- }

type fixedFonts struct{ refs int }

func (s *fixedFonts) Font(spec FontSpec) Font {
	s.refs++
	return &fixedFont{spec: spec, refs: &s.refs}
}

// fixedMetrics gives every rune an advance of 10 at 12pt, ascent 8 and
// descent 2, scaled by size.
type fixedMetrics struct {
	snap bool
}

func sizeFactor(f Font) float64 {
	if s := f.Spec().Size; s > 0 {
		return s / 12
	}
	return 1
}

func (fixedMetrics) Ascent(f Font) float64  { return 8 * sizeFactor(f) }
func (fixedMetrics) Descent(f Font) float64 { return 2 * sizeFactor(f) }
func (fixedMetrics) MeasureText(f Font, s string) float64 {
	return 10 * sizeFactor(f) * float64(utf8.RuneCountInString(s))
}
func (m fixedMetrics) CharOffsets(f Font, s string) []float64 {
	out := make([]float64, 0, len(s))
	x := 0.0
	for range s {
		x += 10 * sizeFactor(f)
		out = append(out, x)
	}
	return out
}
func (fixedMetrics) CharWidth(f Font, r rune) float64 { return 10 * sizeFactor(f) }
func (m fixedMetrics) SnapToPixels() bool             { return m.snap }

// kerningMetrics tightens every "AV" pair by 2.
type kerningMetrics struct{ fixedMetrics }

func (k kerningMetrics) MeasureText(f Font, s string) float64 {
	return k.fixedMetrics.MeasureText(f, s) - 2*float64(strings.Count(s, "AV"))
}

type testSession struct {
	MetricsProvider
	dev *testDevice
}

func (s testSession) End() { s.dev.ended++ }

type testDevice struct {
	mp    MetricsProvider
	begun int
	ended int
}

func (d *testDevice) Begin() MetricsSession {
	d.begun++
	return testSession{MetricsProvider: d.mp, dev: d}
}

// fixedResolver reports a fixed paragraph direction and direction runs.
type fixedResolver struct {
	dir  Direction
	runs []DirRun
}

func (r fixedResolver) Directions(text []rune, base Direction) (Direction, []DirRun) {
	if len(r.runs) == 0 {
		return r.dir, []DirRun{{Pos: 0, Dir: r.dir}}
	}
	return r.dir, r.runs
}

type testEnv struct {
	pl    *ParagraphLayout
	dev   *testDevice
	fonts *fixedFonts
}

func newTestLayout(text string, mutate func(*Options)) *testEnv {
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	fonts := &fixedFonts{}
	pl := New(fonts, opts)
	pl.SetText([]rune(text))
	return &testEnv{pl: pl, dev: &testDevice{mp: fixedMetrics{}}, fonts: fonts}
}

func (e *testEnv) layout() *ParagraphLayout {
	if err := e.pl.UpdateLayout(e.dev); err != nil {
		panic(err)
	}
	return e.pl
}

// recordingGC logs every drawing call.
type recordingGC struct {
	ops   []string
	texts []Point
}

func (g *recordingGC) FillRect(r Rect, c Color) {
	g.ops = append(g.ops, fmt.Sprintf("fill %v %v %v %v", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y))
}
func (g *recordingGC) SetTextColor(c Color) { g.ops = append(g.ops, "color") }
func (g *recordingGC) SetFont(f Font)       { g.ops = append(g.ops, "font") }
func (g *recordingGC) DrawText(p Point, s string) {
	g.ops = append(g.ops, "text "+s)
	g.texts = append(g.texts, p)
}

type nativeGC struct {
	recordingGC
}

func (g *nativeGC) PaintsBackgrounds() bool { return true }
func (g *nativeGC) FillRunBackground(r Rect, c Color) {
	g.ops = append(g.ops, "native")
}
