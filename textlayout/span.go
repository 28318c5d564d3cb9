package textlayout

import (
	"unicode/utf8"

	"github.com/ByLCY/scribe/binding"
	"github.com/ByLCY/scribe/layout"
)

// InsertSpanReference evaluates expr against data, inserts the value at pos
// and marks it with a span reference carrying style. It returns the inserted
// value; nothing changes when expr cannot be resolved.
func (t *TextLayout) InsertSpanReference(pos int, expr string, data any, style layout.Style) (string, bool) {
	val, ok := binding.Evaluate(expr, data)
	if !ok || val == "" {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	pos = t.clampIndex(pos)
	t.replaceLocked(pos, pos, []rune(val))
	n := utf8.RuneCountInString(val)
	t.tree.Apply(pos, pos+n, layout.Style{
		Set: layout.AttrSpanRef,
		Ref: &layout.SpanRef{Expr: expr, Value: val, Style: style},
	})
	return val, true
}

// SpanReferences lists the span references in document order.
func (t *TextLayout) SpanReferences() []layout.SpanRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []layout.SpanRef
	var walk func(nd *layout.StyleNode)
	walk = func(nd *layout.StyleNode) {
		if nd.Style.Ref != nil && nd.Start < nd.End {
			out = append(out, *nd.Style.Ref)
		}
		for _, c := range nd.Children {
			walk(c)
		}
	}
	if t.tree.Root != nil {
		walk(t.tree.Root)
	}
	return out
}

// SetTextTemplate replaces the text with tmpl after ${path} interpolation.
func (t *TextLayout) SetTextTemplate(tmpl string, data any) {
	t.SetText(binding.Interpolate(tmpl, data))
}
