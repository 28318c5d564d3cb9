// Package segment provides Unicode-aware word-break and direction oracles
// for the layout engine: UAX #14 line-break opportunities from go-text and
// UAX #9 bidi runs from golang.org/x/text.
package segment

import (
	"sort"

	"github.com/go-text/typesetting/segmenter"
	"golang.org/x/text/unicode/bidi"

	"github.com/ByLCY/scribe/layout"
)

// Breaker reports line-break opportunities. It keeps segmenter buffers
// between calls and is not safe for concurrent use.
type Breaker struct {
	seg segmenter.Segmenter
}

// NewBreaker returns a UAX #14 word breaker.
func NewBreaker() *Breaker { return &Breaker{} }

// Words returns one word per line segment; a line may break after each.
func (b *Breaker) Words(text []rune) []layout.Word {
	if len(text) == 0 {
		return nil
	}
	b.seg.Init(text)
	it := b.seg.LineIterator()
	var words []layout.Word
	for it.Next() {
		l := it.Line()
		words = append(words, layout.Word{Start: l.Offset, End: l.Offset + len(l.Text)})
	}
	return words
}

// Resolver resolves paragraph direction and direction runs. Nested
// embedding levels are collapsed to their direction. Not safe for
// concurrent use.
type Resolver struct {
	p bidi.Paragraph
}

// NewResolver returns a UAX #9 direction resolver.
func NewResolver() *Resolver { return &Resolver{} }

// Directions implements layout.DirectionResolver.
func (r *Resolver) Directions(text []rune, base layout.Direction) (layout.Direction, []layout.DirRun) {
	dir := base
	if dir == layout.DirAuto {
		dir = FirstStrong(text)
	}
	fallback := []layout.DirRun{{Pos: 0, Dir: dir}}
	if len(text) == 0 {
		return dir, fallback
	}
	def := bidi.LeftToRight
	if dir == layout.DirRTL {
		def = bidi.RightToLeft
	}
	if _, err := r.p.SetString(string(text), bidi.DefaultDirection(def)); err != nil {
		layout.Logger().Warn("segment: bidi analysis failed", "err", err)
		return dir, fallback
	}
	ord, err := r.p.Order()
	if err != nil {
		layout.Logger().Warn("segment: bidi ordering failed", "err", err)
		return dir, fallback
	}
	runs := make([]layout.DirRun, 0, ord.NumRuns())
	for i := 0; i < ord.NumRuns(); i++ {
		run := ord.Run(i)
		start, _ := run.Pos()
		d := layout.DirLTR
		if run.Direction() == bidi.RightToLeft {
			d = layout.DirRTL
		}
		runs = append(runs, layout.DirRun{Pos: start, Dir: d})
	}
	if len(runs) == 0 {
		return dir, fallback
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Pos < runs[j].Pos })
	return dir, runs
}

// FirstStrong returns the direction of the first strong character, or
// DirLTR when the text has none.
func FirstStrong(text []rune) layout.Direction {
	for _, c := range text {
		props, _ := bidi.LookupRune(c)
		switch props.Class() {
		case bidi.L:
			return layout.DirLTR
		case bidi.R, bidi.AL:
			return layout.DirRTL
		}
	}
	return layout.DirLTR
}
