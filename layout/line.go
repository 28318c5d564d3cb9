package layout

import "math"

// Line is one visual line of a paragraph.
type Line struct {
	Index int
	para  int // owning paragraph index

	Start, End int
	Runs       []*Run

	// Origin is the line start position: x of the alignment anchor and y of
	// the baseline, both relative to the paragraph.
	Origin Point

	Ascent     float64
	Descent    float64
	LineHeight float64
	// Indent is the logical offset of the first run from the anchor.
	Indent float64

	TypoBounds           Rect
	TypoBoundsWithSpaces Rect

	// Overflow is set when no break opportunity fitted and the line was
	// closed at the end of an over-long word.
	Overflow bool
}

func (ln *Line) release() {
	for _, r := range ln.Runs {
		r.release()
	}
}

// Top returns the paragraph-relative y of the line box top.
func (ln *Line) Top() float64 { return ln.Origin.Y - ln.Ascent }

// runBlock is a maximal sequence of consecutive runs sharing a direction.
type runBlock struct {
	runs  []*Run
	dir   Direction
	width float64
}

func blocksOf(runs []*Run) []runBlock {
	var blocks []runBlock
	for _, r := range runs {
		dir := r.Dir
		if dir != DirRTL {
			dir = DirLTR
		}
		if n := len(blocks); n > 0 && blocks[n-1].dir == dir {
			blocks[n-1].runs = append(blocks[n-1].runs, r)
			blocks[n-1].width += r.KernedWidth
			continue
		}
		blocks = append(blocks, runBlock{runs: []*Run{r}, dir: dir, width: r.KernedWidth})
	}
	return blocks
}

// ComputeMetrics positions the runs (PreComputeMetrics must have run) and
// folds their metrics into the line. Blocks are laid out in paragraph
// direction; runs inside an RTL block are placed right to left.
func (ln *Line) ComputeMetrics(paraDir Direction, wordWrap bool, lh LineHeight, scale float64, round Rounding) {
	blocks := blocksOf(ln.Runs)
	if paraDir == DirRTL {
		pos := -ln.Indent
		for _, b := range blocks {
			c := &bidiCursor{x: pos}
			if b.dir != DirRTL {
				c.x = pos - b.width
			}
			for _, r := range b.runs {
				r.ComputeMetrics(c)
			}
			pos -= b.width
		}
	} else {
		pos := ln.Indent
		for _, b := range blocks {
			c := &bidiCursor{x: pos}
			if b.dir == DirRTL {
				c.x = pos + b.width
			}
			for _, r := range b.runs {
				r.ComputeMetrics(c)
			}
			pos += b.width
		}
	}

	ln.Ascent, ln.Descent = 0, 0
	ln.TypoBounds, ln.TypoBoundsWithSpaces = Rect{}, Rect{}
	last := len(ln.Runs) - 1
	for i, r := range ln.Runs {
		ln.Ascent = math.Max(ln.Ascent, r.Ascent)
		ln.Descent = math.Max(ln.Descent, r.Descent)
		if i == last && wordWrap {
			ln.TypoBounds = ln.TypoBounds.Union(r.TypoBounds)
		} else {
			ln.TypoBounds = ln.TypoBounds.Union(r.TypoBoundsWithSpaces)
		}
		ln.TypoBoundsWithSpaces = ln.TypoBoundsWithSpaces.Union(r.TypoBoundsWithSpaces)
	}
	ln.LineHeight = lh.Resolve(ln.Ascent+ln.Descent, scale, round)
}

// contentWidth is the distance from the anchor to the far ink edge.
func (ln *Line) contentWidth(paraDir Direction) float64 {
	if paraDir == DirRTL {
		return math.Max(0, -ln.TypoBounds.Min.X)
	}
	return math.Max(0, ln.TypoBounds.Max.X)
}

// startX computes the anchor x inside a layout box of width boxW.
func (ln *Line) startX(boxW float64, m Margins, align HAlign, paraDir Direction, round Rounding) float64 {
	w := ln.contentWidth(paraDir)
	rtl := paraDir == DirRTL
	switch align {
	case AlignRight:
		if rtl {
			return boxW - m.Right
		}
		return boxW - m.Right - w
	case AlignCenter:
		x := m.Left + round.Round((boxW-m.Left-m.Right-w)/2)
		if rtl {
			x += w
		}
		return x
	default:
		if rtl {
			return m.Left + w
		}
		return m.Left
	}
}

// runAt returns the run containing character index i, or the last run when
// i is the line end.
func (ln *Line) runAt(i int) *Run {
	for _, r := range ln.Runs {
		if i >= r.Start && i < r.End {
			return r
		}
	}
	if len(ln.Runs) == 0 {
		return nil
	}
	return ln.Runs[len(ln.Runs)-1]
}
