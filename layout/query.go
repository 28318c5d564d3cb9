package layout

import (
	"math"
	"sort"
)

// Caret describes the caret at a character index in caller coordinates.
type Caret struct {
	// Pos is the top of the caret.
	Pos     Point     `json:"pos"`
	Height  float64   `json:"height"`
	Ascent  float64   `json:"ascent"`
	Descent float64   `json:"descent"`
	Dir     Direction `json:"dir"`
}

// boxTransform maps layout-box coordinates to caller space.
func (pl *ParagraphLayout) boxTransform(origin Point) Affine {
	t := Translate(origin.X, origin.Y)
	if pl.opts.Transform != nil {
		t = pl.opts.Transform.Mul(t)
	}
	return t
}

// contentTransform additionally applies the vertical alignment offset.
func (pl *ParagraphLayout) contentTransform(origin Point) Affine {
	return pl.boxTransform(origin).Mul(Translate(0, pl.vOffset))
}

// LayoutBounds returns the layout box placed at origin.
func (pl *ParagraphLayout) LayoutBounds(origin Point) Rect {
	return pl.boxTransform(origin).ApplyRect(R(0, 0, pl.boxW, pl.boxH))
}

// TypographicBounds returns the union of the inked line extents.
func (pl *ParagraphLayout) TypographicBounds(origin Point) Rect {
	return pl.contentTransform(origin).ApplyRect(pl.typo)
}

// offsets returns the char offsets of r, opening a metrics session on the
// last device if the cache is cold.
func (pl *ParagraphLayout) offsets(r *Run) []float64 {
	if r.cachedOffsets() {
		return r.offsets
	}
	var mp MetricsProvider = pl.session
	if pl.session == nil {
		if pl.device == nil {
			return nil
		}
		s := pl.device.Begin()
		defer s.End()
		mp = s
	}
	return r.GetCharOffsets(&measureCtx{mp: mp, scale: pl.scale, round: pl.round, text: pl.text})
}

// locate finds the paragraph, line and run holding character index i.
func (pl *ParagraphLayout) locate(i int) (*Paragraph, *Line, *Run) {
	if len(pl.Paragraphs) == 0 {
		return nil, nil, nil
	}
	i = max(0, min(i, len(pl.text)))
	p := pl.Paragraphs[len(pl.Paragraphs)-1]
	for _, cand := range pl.Paragraphs {
		if i >= cand.Start && i < cand.End {
			p = cand
			break
		}
	}
	ln := p.lineAt(i)
	return p, ln, ln.runAt(i)
}

// caretLocal returns the layout-local caret x and baseline of index i.
func (pl *ParagraphLayout) caretLocal(i int) (Point, *Paragraph, *Line, *Run) {
	p, ln, r := pl.locate(i)
	if r == nil {
		return Point{}, p, ln, r
	}
	x := r.xAt(r.advanceAt(pl.offsets(r), i))
	return p.Origin.Add(ln.Origin).Add(Point{X: x}), p, ln, r
}

// RunBoundsFromRange returns one rectangle per run fragment covered by
// [start, end), split at run, line and paragraph boundaries.
func (pl *ParagraphLayout) RunBoundsFromRange(origin Point, start, end int) []Rect {
	if !expect(pl.valid, "run bounds queried on an invalid layout") {
		return nil
	}
	start, end = clampRange(start, end, len(pl.text))
	t := pl.contentTransform(origin)
	var out []Rect
	for _, p := range pl.Paragraphs {
		if p.End <= start || p.Start >= end {
			continue
		}
		for _, ln := range p.Lines {
			base := p.Origin.Add(ln.Origin)
			for _, r := range ln.Runs {
				s, e := max(start, r.Start), min(end, r.End)
				if s >= e {
					continue
				}
				offs := pl.offsets(r)
				x0, x1 := r.xAt(r.advanceAt(offs, s)), r.xAt(r.advanceAt(offs, e))
				box := R(math.Min(x0, x1), -r.Ascent, math.Max(x0, x1), r.Descent)
				out = append(out, t.ApplyRect(box.Translate(base)))
			}
		}
	}
	return out
}

// CaretMetrics returns the caret at index i. In line mode the caret spans
// the whole line box, otherwise only the run's ascent and descent.
func (pl *ParagraphLayout) CaretMetrics(origin Point, i int, lineMode bool) (Caret, bool) {
	if !expect(pl.valid, "caret queried on an invalid layout") {
		return Caret{}, false
	}
	pos, _, ln, r := pl.caretLocal(i)
	if r == nil {
		return Caret{}, false
	}
	c := Caret{Ascent: r.Ascent, Descent: r.Descent, Height: r.Ascent + r.Descent, Dir: r.Dir}
	if lineMode {
		c.Ascent, c.Descent, c.Height = ln.Ascent, ln.Descent, ln.LineHeight
	}
	c.Pos = pl.contentTransform(origin).Apply(Point{X: pos.X, Y: pos.Y - c.Ascent})
	return c, true
}

// CharIndexFromPos hit-tests pt and returns the nearest character boundary.
func (pl *ParagraphLayout) CharIndexFromPos(origin Point, pt Point) (int, bool) {
	if !expect(pl.valid, "hit test on an invalid layout") || len(pl.Paragraphs) == 0 {
		return 0, false
	}
	inv, ok := pl.contentTransform(origin).Invert()
	if !ok {
		return 0, false
	}
	local := inv.Apply(pt)

	p := pl.Paragraphs[0]
	for _, cand := range pl.Paragraphs {
		if local.Y >= cand.Origin.Y {
			p = cand
		}
	}
	ly := local.Y - p.Origin.Y
	ln := p.Lines[0]
	for _, cand := range p.Lines {
		if ly >= cand.Top() {
			ln = cand
		}
	}
	lx := local.X - p.Origin.X - ln.Origin.X

	var best *Run
	bestDist := math.Inf(1)
	for _, r := range ln.Runs {
		d := 0.0
		switch {
		case lx < r.X0:
			d = r.X0 - lx
		case lx > r.X1:
			d = lx - r.X1
		}
		if d < bestDist || (d == bestDist && best != nil && best.Len() == 0) {
			best, bestDist = r, d
		}
	}
	if best == nil {
		return ln.Start, true
	}
	idx := pl.nearestIndex(best, lx)
	return pl.clampToLine(p, ln, idx), true
}

// nearestIndex returns the boundary inside r closest to line-relative x.
func (pl *ParagraphLayout) nearestIndex(r *Run, x float64) int {
	n := r.Len()
	if n == 0 {
		return r.Start
	}
	offs := pl.offsets(r)
	bound := func(k int) float64 { return r.xAt(r.advanceAt(offs, r.Start+k)) }
	k := sort.Search(n, func(k int) bool {
		mid := (bound(k) + bound(k+1)) / 2
		if r.Dir == DirRTL {
			return x > mid
		}
		return x < mid
	})
	return r.Start + k
}

// clampToLine keeps a hit inside the line: never past a separator, and not
// past the trailing whitespace of a wrapped line.
func (pl *ParagraphLayout) clampToLine(p *Paragraph, ln *Line, idx int) int {
	if idx < ln.End || ln.End <= ln.Start {
		return idx
	}
	last := pl.text[ln.End-1]
	switch {
	case isEOL(last):
		idx = ln.End - 1
		if last == '\n' && idx > ln.Start && pl.text[idx-1] == '\r' {
			idx--
		}
	case ln.Index < len(p.Lines)-1 && isBlank(last):
		idx = ln.End - 1
	}
	return idx
}

// MoveCharIndexUp returns the index on the previous line at the caret's x.
func (pl *ParagraphLayout) MoveCharIndexUp(origin Point, i int) (int, bool) {
	return pl.moveVertical(origin, i, -1)
}

// MoveCharIndexDown returns the index on the next line at the caret's x.
func (pl *ParagraphLayout) MoveCharIndexDown(origin Point, i int) (int, bool) {
	return pl.moveVertical(origin, i, 1)
}

func (pl *ParagraphLayout) moveVertical(origin Point, i, delta int) (int, bool) {
	if !expect(pl.valid, "caret move on an invalid layout") {
		return i, false
	}
	pos, p, ln, r := pl.caretLocal(i)
	if r == nil {
		return i, false
	}
	tp, tl := p, (*Line)(nil)
	switch k := ln.Index + delta; {
	case k >= 0 && k < len(p.Lines):
		tl = p.Lines[k]
	case delta < 0 && p.Index > 0:
		tp = pl.Paragraphs[p.Index-1]
		tl = tp.Lines[len(tp.Lines)-1]
	case delta > 0 && p.Index+1 < len(pl.Paragraphs):
		tp = pl.Paragraphs[p.Index+1]
		tl = tp.Lines[0]
	default:
		return i, false
	}
	target := Point{X: pos.X, Y: tp.Origin.Y + tl.Origin.Y}
	return pl.CharIndexFromPos(origin, pl.contentTransform(origin).Apply(target))
}
