package layout

import (
	"strings"
	"unicode"
)

const (
	lineSeparator      = '\u2028'
	paragraphSeparator = '\u2029'
	// Placeholder is substituted for empty text so metrics and caret
	// queries never operate on a truly empty string.
	Placeholder = '\u200b'
)

// IsParagraphSeparator reports whether r ends a paragraph.
func IsParagraphSeparator(r rune) bool {
	return r == '\r' || r == '\n' || r == paragraphSeparator
}

// isEOL reports whether r ends a line or a paragraph.
func isEOL(r rune) bool { return IsParagraphSeparator(r) || r == lineSeparator }

func isBlank(r rune) bool { return isEOL(r) || unicode.IsSpace(r) }

// measureCtx bundles the metrics session with DPI scaling and rounding.
type measureCtx struct {
	mp    MetricsProvider
	scale float64
	round Rounding
	text  []rune
}

func (m *measureCtx) ascent(f Font) float64 {
	return m.round.Round(m.mp.Ascent(f) * m.scale)
}

func (m *measureCtx) descent(f Font) float64 {
	return m.round.Round(m.mp.Descent(f) * m.scale)
}

func (m *measureCtx) measure(f Font, s string) float64 {
	if s == "" {
		return 0
	}
	return m.round.Round(m.mp.MeasureText(f, s) * m.scale)
}

func (m *measureCtx) charWidth(f Font, r rune) float64 {
	return m.round.Round(m.mp.CharWidth(f, r) * m.scale)
}

// substr returns text[start:end] with end-of-line characters measured as a
// single space, since some providers report zero width for control characters.
func (m *measureCtx) substr(start, end int) string {
	var b strings.Builder
	for _, r := range m.text[start:end] {
		if isEOL(r) {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Run is a homogeneous slice of a line: one font, one style, one direction.
type Run struct {
	Index int
	line  int // owning line index inside the paragraph

	Start, End int
	Dir        Direction
	IsTab      bool

	font  Font
	style Style

	Ascent  float64
	Descent float64

	// Width is the advance of the run's own text, trailing spaces included.
	Width float64
	// KernedWidth is the distance to the start of the next run, including
	// cross-run kerning.
	KernedWidth float64
	// InkWidth excludes insignificant whitespace; inkLead is the stripped
	// leading part for runs reversed against the paragraph.
	InkWidth float64
	inkLead  float64

	// X0 and X1 are the visual extents relative to the line origin.
	X0, X1 float64

	TypoBounds           Rect
	TypoBoundsWithSpaces Rect
	HitBounds            Rect

	offsets []float64
}

// Font returns the run's font reference.
func (r *Run) Font() Font { return r.font }

// Style returns the effective style of the run.
func (r *Run) Style() Style { return r.style }

// Len returns the number of characters in the run.
func (r *Run) Len() int { return r.End - r.Start }

func (r *Run) release() {
	if r.font != nil {
		r.font.Release()
		r.font = nil
	}
}

// stripped returns the measured substring without insignificant whitespace,
// and the number of leading runes removed.
func (r *Run) stripped(m *measureCtx, reversed bool) (string, int) {
	start, end := r.Start, r.End
	lead := 0
	if reversed {
		for start < end && isBlank(m.text[start]) {
			start++
			lead++
		}
	} else {
		for end > start && isBlank(m.text[end-1]) {
			end--
		}
	}
	return m.substr(start, end), lead
}

// PreComputeMetrics queries the metrics provider for the run's vertical
// metrics and advance. x is the logical position of the run inside the line
// and is only used by tab runs. next, when it shares the run's direction,
// extends the measured text to capture cross-run kerning. With
// ignoreTrailingSpaces the run is measured for word-wrap probing only.
func (r *Run) PreComputeMetrics(m *measureCtx, x float64, next *Run, ignoreTrailingSpaces, reversed bool, tab func(m *measureCtx, f Font, x float64) float64) {
	r.Ascent = m.ascent(r.font)
	r.Descent = m.descent(r.font)
	r.inkLead = 0
	if r.IsTab {
		w := tab(m, r.font, x) - x
		r.Width, r.KernedWidth, r.InkWidth = w, w, 0
		if reversed {
			r.inkLead = w
		}
		return
	}
	ink, lead := r.stripped(m, reversed)
	if ignoreTrailingSpaces {
		w := m.measure(r.font, ink)
		r.Width, r.KernedWidth, r.InkWidth = w, w, w
		return
	}
	full := m.substr(r.Start, r.End)
	r.Width = m.measure(r.font, full)
	r.InkWidth = m.measure(r.font, ink)
	if lead > 0 {
		r.inkLead = r.Width - r.InkWidth
	}
	r.KernedWidth = r.Width
	if next != nil && next.Dir == r.Dir && !next.IsTab && next.End > next.Start && r.End > r.Start {
		n := min(2, next.End-next.Start)
		ext := m.substr(next.Start, next.Start+n)
		r.KernedWidth = m.measure(r.font, full+ext) - m.measure(r.font, ext)
	}
}

// bidiCursor carries the placement position across the runs of a line.
// Runs with DirRTL are placed leftwards from x, all others rightwards.
type bidiCursor struct {
	x float64
}

// ComputeMetrics resolves the run's final x-extent and bounding boxes.
func (r *Run) ComputeMetrics(c *bidiCursor) {
	if r.Dir == DirRTL {
		r.X1 = c.x
		r.X0 = c.x - r.KernedWidth
		c.x = r.X0
		inkRight := r.X1 - r.inkLead
		r.TypoBounds = R(inkRight-r.InkWidth, -r.Ascent, inkRight, r.Descent)
		r.TypoBoundsWithSpaces = R(r.X1-r.Width, -r.Ascent, r.X1, r.Descent)
	} else {
		r.X0 = c.x
		r.X1 = c.x + r.KernedWidth
		c.x = r.X1
		inkLeft := r.X0 + r.inkLead
		r.TypoBounds = R(inkLeft, -r.Ascent, inkLeft+r.InkWidth, r.Descent)
		r.TypoBoundsWithSpaces = R(r.X0, -r.Ascent, r.X0+r.Width, r.Descent)
	}
	r.HitBounds = R(r.X0, -r.Ascent, r.X1, r.Descent)
}

// GetCharOffsets returns cumulative advances for every character of the run,
// computing them on first use or when the cached size no longer matches.
func (r *Run) GetCharOffsets(m *measureCtx) []float64 {
	n := r.End - r.Start
	if len(r.offsets) == n {
		return r.offsets
	}
	if n == 0 {
		r.offsets = r.offsets[:0]
		return r.offsets
	}
	if r.IsTab {
		r.offsets = []float64{r.Width}
		return r.offsets
	}
	raw := m.mp.CharOffsets(r.font, m.substr(r.Start, r.End))
	out := make([]float64, n)
	for i := range out {
		if i < len(raw) {
			out[i] = m.round.Round(raw[i] * m.scale)
		} else if i > 0 {
			out[i] = out[i-1]
		}
	}
	r.offsets = out
	return out
}

// cachedOffsets reports whether the offset cache is fresh.
func (r *Run) cachedOffsets() bool { return len(r.offsets) == r.End-r.Start }

// advanceAt returns the advance from the run start to character index i
// (absolute), clamped to the run.
func (r *Run) advanceAt(offsets []float64, i int) float64 {
	k := i - r.Start
	switch {
	case k <= 0:
		return 0
	case k >= len(offsets):
		if len(offsets) == 0 {
			return 0
		}
		return offsets[len(offsets)-1]
	default:
		return offsets[k-1]
	}
}

// xAt maps an advance inside the run to a line-relative x.
func (r *Run) xAt(adv float64) float64 {
	if r.Dir == DirRTL {
		return r.X1 - adv
	}
	return r.X0 + adv
}

// visualText returns the characters to draw, in visual order.
func (r *Run) visualText(text []rune) string {
	if r.IsTab {
		return ""
	}
	rs := make([]rune, 0, r.End-r.Start)
	for _, c := range text[r.Start:r.End] {
		if isEOL(c) || c == Placeholder {
			continue
		}
		rs = append(rs, c)
	}
	if r.Dir == DirRTL {
		for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
			rs[i], rs[j] = rs[j], rs[i]
		}
	}
	return string(rs)
}
