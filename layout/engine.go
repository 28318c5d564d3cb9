package layout

import (
	"errors"
	"math"
)

// ErrNoDevice is returned when a layout pass is requested without a device.
var ErrNoDevice = errors.New("layout: no metrics device")

// ParagraphLayout is the engine root: it owns the paragraphs of a text and
// computes their geometry in device units.
type ParagraphLayout struct {
	text     []rune
	opts     Options
	tree     *StyleTree
	extra    *StyleTree
	fonts    FontService
	breaker  WordBreaker
	resolver DirectionResolver

	device  Device
	session MetricsSession
	round   Rounding
	scale   float64

	Paragraphs []*Paragraph

	valid    bool
	stale    bool // text, styles or oracles changed since the last full pass
	boxW     float64
	boxH     float64
	contentW float64
	contentH float64
	vOffset  float64
	typo     Rect
}

// New returns an empty layout resolving fonts through fonts.
func New(fonts FontService, opts Options) *ParagraphLayout {
	return &ParagraphLayout{
		fonts:    fonts,
		opts:     opts,
		breaker:  SpaceBreaker{},
		resolver: LTRResolver{},
		tree:     NewStyleTree(0),
		scale:    1,
	}
}

// SetText replaces the text; the style tree is resized to match.
func (pl *ParagraphLayout) SetText(text []rune) {
	pl.text = append(pl.text[:0:0], text...)
	pl.tree.Resize(len(pl.text))
	pl.valid, pl.stale = false, true
}

// Text returns the laid out text.
func (pl *ParagraphLayout) Text() []rune { return pl.text }

// SetStyles installs the style tree and the optional extra overlay.
func (pl *ParagraphLayout) SetStyles(tree, extra *StyleTree) {
	if tree == nil {
		tree = NewStyleTree(len(pl.text))
	}
	pl.tree, pl.extra = tree, extra
	pl.valid, pl.stale = false, true
}

// SetOptions replaces the layout options. Changes beyond the box size,
// vertical alignment and transform require a full pass.
func (pl *ParagraphLayout) SetOptions(opts Options) {
	prev := pl.opts
	prev.MaxWidth, prev.MaxHeight, prev.VAlign, prev.Transform = opts.MaxWidth, opts.MaxHeight, opts.VAlign, opts.Transform
	if prev != opts {
		pl.stale = true
	}
	pl.opts = opts
	pl.valid = false
}

// Options returns the current options.
func (pl *ParagraphLayout) Options() Options { return pl.opts }

// SetWordBreaker replaces the word oracle; nil restores the built-in one.
func (pl *ParagraphLayout) SetWordBreaker(b WordBreaker) {
	if b == nil {
		b = SpaceBreaker{}
	}
	pl.breaker = b
	pl.valid, pl.stale = false, true
}

// SetDirectionResolver replaces the direction oracle; nil restores the
// built-in left-to-right one.
func (pl *ParagraphLayout) SetDirectionResolver(r DirectionResolver) {
	if r == nil {
		r = LTRResolver{}
	}
	pl.resolver = r
	pl.valid, pl.stale = false, true
}

// ReplaceText replaces [start, end) with s. The next layout pass rebuilds
// every paragraph.
func (pl *ParagraphLayout) ReplaceText(start, end int, s []rune) {
	start, end = clampRange(start, end, len(pl.text))
	out := make([]rune, 0, len(pl.text)-(end-start)+len(s))
	out = append(out, pl.text[:start]...)
	out = append(out, s...)
	out = append(out, pl.text[end:]...)
	pl.text = out
	pl.tree.DeleteText(start, end)
	pl.tree.InsertText(start, len(s))
	pl.tree.Resize(len(pl.text))
	pl.valid, pl.stale = false, true
}

// ApplyStyle adds a style over [start, end) and invalidates the layout.
func (pl *ParagraphLayout) ApplyStyle(start, end int, s Style) {
	pl.tree.Apply(start, end, s)
	pl.valid, pl.stale = false, true
}

// Valid reports whether the cached geometry matches the inputs.
func (pl *ParagraphLayout) Valid() bool { return pl.valid }

// Invalidate forces the next pass to rebuild everything.
func (pl *ParagraphLayout) Invalidate() { pl.valid, pl.stale = false, true }

// UpdateLayout rebuilds all paragraphs from scratch.
func (pl *ParagraphLayout) UpdateLayout(dev Device) error {
	return pl.compute(dev, false)
}

// UpdateBounds recomputes stacking, alignment and the layout box. Lines are
// rebuilt only for paragraphs whose wrap width changed.
func (pl *ParagraphLayout) UpdateBounds(dev Device) error {
	if len(pl.Paragraphs) == 0 || pl.stale {
		return pl.compute(dev, false)
	}
	return pl.compute(dev, true)
}

// RefreshStyles pushes geometry-neutral style changes (colors) into the
// existing runs. When the new styles no longer line up with the run
// boundaries a full layout pass is performed instead; the returned flag
// reports whether the fast path was taken.
func (pl *ParagraphLayout) RefreshStyles(dev Device) (bool, error) {
	if !pl.valid || len(pl.Paragraphs) == 0 {
		return false, pl.UpdateLayout(dev)
	}
	base := DefaultStyle().Merge(pl.opts.BaseStyle)
	fresh := make([][]StyleSegment, len(pl.Paragraphs))
	for i, p := range pl.Paragraphs {
		segs := Flatten(base, pl.tree, pl.extra, p.Start, p.End)
		for _, ln := range p.Lines {
			for _, r := range ln.Runs {
				if !runInSegment(r, segs) {
					return false, pl.UpdateLayout(dev)
				}
			}
		}
		fresh[i] = segs
	}
	for i, p := range pl.Paragraphs {
		segs := fresh[i]
		fonts := make([]Font, len(segs))
		for k, seg := range segs {
			fonts[k] = pl.fonts.Font(seg.Style.FontSpec())
		}
		for _, f := range p.fonts {
			f.Release()
		}
		p.Styles, p.fonts = segs, fonts
		for _, ln := range p.Lines {
			for _, r := range ln.Runs {
				if seg, ok := segmentAt(segs, r.Start); ok {
					r.style = seg.Style
				}
			}
		}
	}
	return true, nil
}

func runInSegment(r *Run, segs []StyleSegment) bool {
	seg, ok := segmentAt(segs, r.Start)
	if !ok {
		return false
	}
	return r.End <= seg.End && seg.Style.FontSpec() == r.style.FontSpec()
}

func segmentAt(segs []StyleSegment, pos int) (StyleSegment, bool) {
	for _, s := range segs {
		if pos >= s.Start && (pos < s.End || s.Start == s.End) {
			return s, true
		}
	}
	if n := len(segs); n > 0 && pos == segs[n-1].End {
		return segs[n-1], true
	}
	return StyleSegment{}, false
}

// Close releases every font reference held by the layout.
func (pl *ParagraphLayout) Close() {
	for _, p := range pl.Paragraphs {
		p.release()
	}
	pl.Paragraphs = nil
	pl.valid = false
}

func (pl *ParagraphLayout) compute(dev Device, boundsOnly bool) error {
	if dev == nil {
		return ErrNoDevice
	}
	if !expect(pl.session == nil, "layout pass re-entered while a metrics session is active") {
		return nil
	}
	sess := dev.Begin()
	pl.device, pl.session = dev, sess
	defer func() {
		sess.End()
		pl.session = nil
	}()

	pl.round = RoundTwips
	if sess.SnapToPixels() {
		pl.round = RoundPixel
	}
	pl.scale = dpiScale(pl.opts.DPI)
	env := pl.env(sess)

	if !boundsOnly {
		for _, p := range pl.Paragraphs {
			p.release()
		}
		pl.Paragraphs = pl.Paragraphs[:0]
		for i, r := range splitParagraphs(pl.text) {
			pl.Paragraphs = append(pl.Paragraphs, &Paragraph{Index: i, Start: r[0], End: r[1]})
		}
	}
	maxW := pl.round.Round(math.Max(0, pl.opts.MaxWidth) * pl.scale)
	for _, p := range pl.Paragraphs {
		p.ComputeMetrics(env, boundsOnly, maxW)
	}
	pl.finish(maxW)
	pl.valid = true
	if !boundsOnly {
		pl.stale = false
	}
	Logger().Debug("layout pass",
		"paragraphs", len(pl.Paragraphs),
		"boundsOnly", boundsOnly,
		"width", pl.boxW,
		"height", pl.boxH)
	return nil
}

func (pl *ParagraphLayout) env(mp MetricsProvider) *layoutEnv {
	base := DefaultStyle().Merge(pl.opts.BaseStyle)
	return &layoutEnv{
		m:        &measureCtx{mp: mp, scale: pl.scale, round: pl.round, text: pl.text},
		fonts:    pl.fonts,
		breaker:  pl.breaker,
		resolver: pl.resolver,
		base:     base,
		tree:     pl.tree,
		extra:    pl.extra,
		props:    pl.opts.Paragraph,
		wordWrap: pl.opts.WordWrap,
	}
}

// finish aligns paragraphs, stacks them and resolves the layout box.
func (pl *ParagraphLayout) finish(maxW float64) {
	natural := 0.0
	for _, p := range pl.Paragraphs {
		natural = math.Max(natural, p.NaturalWidth)
	}
	pl.contentW = natural
	pl.boxW = natural
	if maxW > 0 {
		pl.boxW = maxW
	}
	y := 0.0
	pl.typo = Rect{}
	for _, p := range pl.Paragraphs {
		p.align(pl.boxW, pl.round)
		p.Origin = Point{X: 0, Y: y}
		pl.typo = pl.typo.Union(p.TypoBounds.Translate(p.Origin))
		y += p.Height
	}
	pl.contentH = y
	pl.boxH = y
	if mh := pl.round.Round(math.Max(0, pl.opts.MaxHeight) * pl.scale); mh > 0 {
		pl.boxH = mh
	}
	switch pl.opts.VAlign {
	case AlignMiddle:
		pl.vOffset = pl.round.Round((pl.boxH - pl.contentH) / 2)
	case AlignBottom:
		pl.vOffset = pl.boxH - pl.contentH
	default:
		pl.vOffset = 0
	}
}

// splitParagraphs returns the paragraph ranges of text. "\r\n" counts as
// one separator; a trailing separator yields an empty final paragraph.
func splitParagraphs(text []rune) [][2]int {
	var out [][2]int
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !IsParagraphSeparator(c) {
			continue
		}
		end := i + 1
		if c == '\r' && end < len(text) && text[end] == '\n' {
			end++
			i++
		}
		out = append(out, [2]int{start, end})
		start = end
	}
	return append(out, [2]int{start, len(text)})
}

// Scale returns the active DPI scale factor.
func (pl *ParagraphLayout) Scale() float64 { return pl.scale }

// Rounding returns the rounding policy of the last pass.
func (pl *ParagraphLayout) Rounding() Rounding { return pl.round }

// ContentHeight is the sum of the paragraph heights.
func (pl *ParagraphLayout) ContentHeight() float64 { return pl.contentH }

// NaturalWidth is the widest paragraph including margins.
func (pl *ParagraphLayout) NaturalWidth() float64 { return pl.contentW }
