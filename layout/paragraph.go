package layout

import "math"

// minWrapWidth keeps wrapping active when the margins consume the box.
const minWrapWidth = 1.0 / TwipsPerPoint

// layoutEnv is the shared input of one layout pass.
type layoutEnv struct {
	m        *measureCtx
	fonts    FontService
	breaker  WordBreaker
	resolver DirectionResolver
	base     Style
	tree     *StyleTree
	extra    *StyleTree
	props    ParagraphProps
	wordWrap bool
}

// Paragraph is a maximal range of text terminated by a paragraph separator
// (included) or by the end of the text.
type Paragraph struct {
	Index      int
	Start, End int
	Dir        Direction
	Align      HAlign

	// MaxWidth is the wrap width the lines were built for; 0 is unbounded.
	MaxWidth float64
	Styles   []StyleSegment
	DirRuns  []DirRun
	Lines    []*Line

	// Origin is the paragraph's top-left corner inside the layout.
	Origin       Point
	Height       float64
	NaturalWidth float64
	TypoBounds   Rect

	words   []Word
	fonts   []Font
	margins Margins
	indent  float64
	tabStop float64
}

func (p *Paragraph) release() {
	for _, ln := range p.Lines {
		ln.release()
	}
	p.Lines = nil
	for _, f := range p.fonts {
		f.Release()
	}
	p.fonts = nil
}

// ComputeMetrics lays out the paragraph for a layout of width inputMaxWidth
// (device units, 0 for unbounded). With updateBoundsOnly the cached
// analysis and lines are reused unless the wrap width changed.
func (p *Paragraph) ComputeMetrics(env *layoutEnv, updateBoundsOnly bool, inputMaxWidth float64) {
	m := env.m
	if !updateBoundsOnly || p.Styles == nil {
		p.analyse(env)
	}
	p.margins = env.props.Margins.scaled(m.scale, m.round)
	p.indent = m.round.Round(env.props.FirstLineIndent * m.scale)
	p.tabStop = env.props.TabStop * m.scale

	maxW := 0.0
	if inputMaxWidth > 0 {
		maxW = inputMaxWidth - p.margins.Left - p.margins.Right
		if maxW <= 0 {
			maxW = minWrapWidth
		}
	}
	if !updateBoundsOnly || len(p.Lines) == 0 || maxW != p.MaxWidth {
		p.MaxWidth = maxW
		p.breakLines(env)
	}
	p.stack()
}

// analyse resolves direction runs, flattened styles, fonts and words.
func (p *Paragraph) analyse(env *layoutEnv) {
	p.release()
	text := env.m.text[p.Start:p.End]

	dir, runs := env.resolver.Directions(text, env.props.Direction)
	if dir == DirAuto {
		dir = DirLTR
	}
	p.Dir = dir
	p.DirRuns = p.DirRuns[:0]
	if len(runs) == 0 || runs[0].Pos > 0 {
		p.DirRuns = append(p.DirRuns, DirRun{Pos: p.Start, Dir: dir})
	}
	for _, r := range runs {
		if r.Dir == DirAuto {
			r.Dir = dir
		}
		p.DirRuns = append(p.DirRuns, DirRun{Pos: p.Start + r.Pos, Dir: r.Dir})
	}

	p.Styles = Flatten(env.base, env.tree, env.extra, p.Start, p.End)
	p.fonts = make([]Font, len(p.Styles))
	for i, seg := range p.Styles {
		p.fonts[i] = env.fonts.Font(seg.Style.FontSpec())
	}
	p.Align = env.props.Align
	if first := p.Styles[0].Style; first.Has(AttrJustify) {
		p.Align = first.Justify
	}

	p.words = p.words[:0]
	for _, w := range env.breaker.Words(text) {
		p.words = append(p.words, Word{Start: p.Start + w.Start, End: p.Start + w.End})
	}
}

func (p *Paragraph) styleIndexAt(pos, from int) int {
	i := from
	for i+1 < len(p.Styles) && p.Styles[i].End <= pos {
		i++
	}
	return i
}

func (p *Paragraph) dirIndexAt(pos, from int) int {
	i := from
	for i+1 < len(p.DirRuns) && p.DirRuns[i+1].Pos <= pos {
		i++
	}
	return i
}

func (p *Paragraph) dirOf(i int) Direction {
	if d := p.DirRuns[i].Dir; d == DirRTL {
		return DirRTL
	}
	return DirLTR
}

// indentFor returns the logical start offset of line idx. A negative first
// line indent shifts every line but the first instead.
func (p *Paragraph) indentFor(idx int) float64 {
	switch {
	case p.indent >= 0 && idx == 0:
		return p.indent
	case p.indent < 0 && idx > 0:
		return -p.indent
	}
	return 0
}

// applyTab returns the x reached by a tab at x. Stops are evaluated in
// TWIPS so accumulated rounding cannot drift them.
func (p *Paragraph) applyTab(m *measureCtx, f Font, x float64) float64 {
	interval := toTwips(p.tabStop)
	if interval <= 0 {
		return x + m.charWidth(f, ' ')
	}
	xt := toTwips(x)
	n := xt / interval
	if xt < 0 && xt%interval != 0 {
		n--
	}
	return m.round.Round(fromTwips((n + 1) * interval))
}

// scanCheckpoint is the cursor state of the line scan. A copy taken at a
// fitting break opportunity is what the scan rewinds to on overflow.
type scanCheckpoint struct {
	pos      int
	runStart int
	x        float64
	styleIdx int
	dirIdx   int
	wordIdx  int
	runCount int
}

func (p *Paragraph) breakLines(env *layoutEnv) {
	for _, ln := range p.Lines {
		ln.release()
	}
	p.Lines = nil
	wrap := env.wordWrap && p.MaxWidth > 0
	st := scanCheckpoint{pos: p.Start, runStart: p.Start}
	for {
		p.Lines = append(p.Lines, p.scanLine(env, &st, len(p.Lines), wrap))
		if st.pos >= p.End {
			break
		}
	}
}

// wordEndAt reports whether the scan position is a line-break opportunity.
func (p *Paragraph) wordEndAt(st *scanCheckpoint) bool {
	for st.wordIdx < len(p.words) && p.words[st.wordIdx].End < st.pos {
		st.wordIdx++
	}
	return st.wordIdx < len(p.words) && p.words[st.wordIdx].End == st.pos
}

// openRunWidth measures the open run without its insignificant whitespace.
func (p *Paragraph) openRunWidth(env *layoutEnv, st *scanCheckpoint) float64 {
	dir := p.dirOf(st.dirIdx)
	open := Run{Start: st.runStart, End: st.pos, Dir: dir, font: p.fonts[st.styleIdx]}
	open.PreComputeMetrics(env.m, st.x, nil, true, dir != p.Dir, p.applyTab)
	return open.Width
}

func (p *Paragraph) scanLine(env *layoutEnv, st *scanCheckpoint, idx int, wrap bool) *Line {
	m := env.m
	ln := &Line{Index: idx, para: p.Index, Start: st.pos, Indent: p.indentFor(idx)}
	st.x = ln.Indent
	st.runStart = st.pos
	st.runCount = 0

	var runs []*Run
	var backup scanCheckpoint
	hasBackup := false

	closeRun := func(end int, tab bool) {
		r := &Run{
			Start: st.runStart,
			End:   end,
			IsTab: tab,
			Dir:   p.dirOf(st.dirIdx),
			font:  p.fonts[st.styleIdx].Retain(),
			style: p.Styles[st.styleIdx].Style,
		}
		if tab {
			r.Width = p.applyTab(m, r.font, st.x) - st.x
		} else {
			r.Width = m.measure(r.font, m.substr(r.Start, r.End))
		}
		st.x += r.Width
		runs = append(runs, r)
		st.runCount = len(runs)
		st.runStart = end
	}
	finish := func() *Line {
		ln.End = st.pos
		p.finishLine(env, ln, runs)
		return ln
	}

	for st.pos < p.End {
		si := p.styleIndexAt(st.pos, st.styleIdx)
		di := p.dirIndexAt(st.pos, st.dirIdx)
		if (si != st.styleIdx || p.dirOf(di) != p.dirOf(st.dirIdx)) && st.pos > st.runStart {
			closeRun(st.pos, false)
		}
		st.styleIdx, st.dirIdx = si, di

		eol := false
		switch c := m.text[st.pos]; c {
		case '\t':
			// 制表符总是结束当前 run，即使它为空
			closeRun(st.pos, false)
			closeRun(st.pos+1, true)
			st.pos++
		case lineSeparator:
			st.pos++
			eol = true
		default:
			st.pos++
		}

		// 行分隔符前的最后一个词同样要做换行检查
		breakable := eol || st.pos == p.End || p.wordEndAt(st)
		if !wrap || !breakable || st.x+p.openRunWidth(env, st) <= p.MaxWidth {
			if eol {
				closeRun(st.pos, false)
				return finish()
			}
			if wrap && breakable {
				backup = *st
				hasBackup = true
			}
			continue
		}
		if hasBackup {
			for _, r := range runs[backup.runCount:] {
				r.release()
			}
			runs = runs[:backup.runCount]
			*st = backup
		} else {
			ln.Overflow = true
		}
		if st.pos > st.runStart {
			closeRun(st.pos, false)
		}
		return finish()
	}
	if st.pos > st.runStart || len(runs) == 0 {
		closeRun(st.pos, false)
	}
	return finish()
}

// finishLine runs the final metric passes over the runs of a closed line.
func (p *Paragraph) finishLine(env *layoutEnv, ln *Line, runs []*Run) {
	ln.Runs = runs
	x := ln.Indent
	for i, r := range runs {
		r.Index = i
		r.line = ln.Index
		r.offsets = nil
		var next *Run
		if i+1 < len(runs) {
			next = runs[i+1]
		}
		r.PreComputeMetrics(env.m, x, next, false, r.Dir != p.Dir, p.applyTab)
		x += r.KernedWidth
	}
	ln.ComputeMetrics(p.Dir, env.wordWrap, env.props.LineHeight, env.m.scale, env.m.round)
}

// stack assigns baselines top to bottom and the paragraph height.
func (p *Paragraph) stack() {
	y := p.margins.Top
	natural := 0.0
	for _, ln := range p.Lines {
		y += ln.Ascent
		ln.Origin.Y = y
		y += ln.LineHeight - ln.Ascent
		natural = math.Max(natural, ln.contentWidth(p.Dir))
	}
	p.Height = y + p.margins.Bottom
	p.NaturalWidth = p.margins.Left + natural + p.margins.Right
}

// align places every line horizontally inside a box of width boxW.
func (p *Paragraph) align(boxW float64, round Rounding) {
	p.TypoBounds = Rect{}
	for _, ln := range p.Lines {
		ln.Origin.X = ln.startX(boxW, p.margins, p.Align, p.Dir, round)
		p.TypoBounds = p.TypoBounds.Union(ln.TypoBounds.Translate(ln.Origin))
	}
}

// lineAt returns the line containing character index i.
func (p *Paragraph) lineAt(i int) *Line {
	for _, ln := range p.Lines {
		if i >= ln.Start && i < ln.End {
			return ln
		}
	}
	return p.Lines[len(p.Lines)-1]
}
