package textlayout

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/layout"
)

// ErrInvalidDescription is returned by Import for descriptions that cannot
// be applied.
var ErrInvalidDescription = errors.New("textlayout: invalid paragraph description")

// ImportMode selects how Import combines a description with the layout.
type ImportMode uint8

const (
	// Replace resets text, styles, properties and metadata first.
	Replace ImportMode = iota
	// Merge applies only what the description sets.
	Merge
)

const refKey = "ref"

type propCodec struct {
	key string
	get func(o *layout.Options) string
	set func(o *layout.Options, v string) error
}

type attrCodec struct {
	key    string
	attr   layout.Attr
	quoted bool
	get    func(s *layout.Style) string
	set    func(s *layout.Style, v string) error
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func fmtPt(v float64) string    { return fmtFloat(v) + "pt" }

func parsePt(v string) (float64, error) {
	pt, ok := layout.ParsePoints(v)
	if !ok {
		return 0, fmt.Errorf("invalid length %q", v)
	}
	return pt, nil
}

func ptProp(key string, field func(o *layout.Options) *float64) propCodec {
	return propCodec{
		key: key,
		get: func(o *layout.Options) string { return fmtPt(*field(o)) },
		set: func(o *layout.Options, v string) error {
			pt, err := parsePt(v)
			if err != nil {
				return err
			}
			*field(o) = pt
			return nil
		},
	}
}

var propCodecs = []propCodec{
	{
		key: "align",
		get: func(o *layout.Options) string { return o.Paragraph.Align.String() },
		set: func(o *layout.Options, v string) error {
			a, ok := layout.ParseHAlign(v)
			if !ok {
				return fmt.Errorf("invalid alignment %q", v)
			}
			o.Paragraph.Align = a
			return nil
		},
	},
	{
		key: "valign",
		get: func(o *layout.Options) string { return o.VAlign.String() },
		set: func(o *layout.Options, v string) error {
			a, ok := layout.ParseVAlign(v)
			if !ok {
				return fmt.Errorf("invalid vertical alignment %q", v)
			}
			o.VAlign = a
			return nil
		},
	},
	{
		key: "direction",
		get: func(o *layout.Options) string { return o.Paragraph.Direction.String() },
		set: func(o *layout.Options, v string) error {
			d, ok := layout.ParseDirection(v)
			if !ok {
				return fmt.Errorf("invalid direction %q", v)
			}
			o.Paragraph.Direction = d
			return nil
		},
	},
	{
		key: "line-height",
		get: func(o *layout.Options) string { return o.Paragraph.LineHeight.String() },
		set: func(o *layout.Options, v string) error {
			h, ok := layout.ParseLineHeight(v)
			if !ok {
				return fmt.Errorf("invalid line height %q", v)
			}
			o.Paragraph.LineHeight = h
			return nil
		},
	},
	ptProp("first-line", func(o *layout.Options) *float64 { return &o.Paragraph.FirstLineIndent }),
	ptProp("tab-stop", func(o *layout.Options) *float64 { return &o.Paragraph.TabStop }),
	ptProp("margin-top", func(o *layout.Options) *float64 { return &o.Paragraph.Margins.Top }),
	ptProp("margin-right", func(o *layout.Options) *float64 { return &o.Paragraph.Margins.Right }),
	ptProp("margin-bottom", func(o *layout.Options) *float64 { return &o.Paragraph.Margins.Bottom }),
	ptProp("margin-left", func(o *layout.Options) *float64 { return &o.Paragraph.Margins.Left }),
	ptProp("max-width", func(o *layout.Options) *float64 { return &o.MaxWidth }),
	ptProp("max-height", func(o *layout.Options) *float64 { return &o.MaxHeight }),
	{
		key: "word-wrap",
		get: func(o *layout.Options) string { return strconv.FormatBool(o.WordWrap) },
		set: func(o *layout.Options, v string) error {
			b, err := strconv.ParseBool(v)
			o.WordWrap = b
			return err
		},
	},
	{
		key: "dpi",
		get: func(o *layout.Options) string { return fmtFloat(o.DPI) },
		set: func(o *layout.Options, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid dpi %q", v)
			}
			o.DPI = f
			return nil
		},
	},
}

func boolAttr(key string, a layout.Attr, field func(s *layout.Style) *bool) attrCodec {
	return attrCodec{
		key:  key,
		attr: a,
		get:  func(s *layout.Style) string { return strconv.FormatBool(*field(s)) },
		set: func(s *layout.Style, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*field(s) = b
			return nil
		},
	}
}

func colorAttr(key string, a layout.Attr, field func(s *layout.Style) *layout.Color) attrCodec {
	return attrCodec{
		key:  key,
		attr: a,
		get:  func(s *layout.Style) string { return field(s).Hex() },
		set: func(s *layout.Style, v string) error {
			c, ok := layout.ParseColor(v)
			if !ok {
				return fmt.Errorf("invalid color %q", v)
			}
			*field(s) = c
			return nil
		},
	}
}

var attrCodecs = []attrCodec{
	{
		key:    "font",
		attr:   layout.AttrFontName,
		quoted: true,
		get:    func(s *layout.Style) string { return s.FontName },
		set: func(s *layout.Style, v string) error {
			s.FontName = v
			return nil
		},
	},
	{
		key:  "size",
		attr: layout.AttrFontSize,
		get:  func(s *layout.Style) string { return fmtPt(s.FontSize) },
		set: func(s *layout.Style, v string) error {
			pt, err := parsePt(v)
			if err != nil || pt <= 0 {
				return fmt.Errorf("invalid font size %q", v)
			}
			s.FontSize = pt
			return nil
		},
	},
	boolAttr("bold", layout.AttrBold, func(s *layout.Style) *bool { return &s.Bold }),
	boolAttr("italic", layout.AttrItalic, func(s *layout.Style) *bool { return &s.Italic }),
	boolAttr("underline", layout.AttrUnderline, func(s *layout.Style) *bool { return &s.Underline }),
	boolAttr("strikeout", layout.AttrStrikeout, func(s *layout.Style) *bool { return &s.Strikeout }),
	colorAttr("color", layout.AttrColor, func(s *layout.Style) *layout.Color { return &s.Color }),
	colorAttr("background", layout.AttrBackground, func(s *layout.Style) *layout.Color { return &s.Background }),
	{
		key:  "justify",
		attr: layout.AttrJustify,
		get:  func(s *layout.Style) string { return s.Justify.String() },
		set: func(s *layout.Style, v string) error {
			a, ok := layout.ParseHAlign(v)
			if !ok {
				return fmt.Errorf("invalid justification %q", v)
			}
			s.Justify = a
			return nil
		},
	},
}

func styleProps(s layout.Style) []dsl.Property {
	var out []dsl.Property
	for _, c := range attrCodecs {
		if s.Has(c.attr) {
			out = append(out, dsl.Property{Key: c.key, Value: c.get(&s), Quoted: c.quoted})
		}
	}
	return out
}

// applyAttr sets one style attribute; handled is false for unknown keys.
func applyAttr(s *layout.Style, key, v string) (handled bool, err error) {
	for _, c := range attrCodecs {
		if c.key == key {
			if err := c.set(s, v); err != nil {
				return true, err
			}
			s.Set |= c.attr
			return true, nil
		}
	}
	return false, nil
}

// exportOptions writes the properties that differ from the defaults. Base
// style attributes are written with the style keys.
func exportOptions(o layout.Options) []dsl.Property {
	def := layout.DefaultOptions()
	var out []dsl.Property
	for _, c := range propCodecs {
		if v := c.get(&o); v != c.get(&def) {
			out = append(out, dsl.Property{Key: c.key, Value: v})
		}
	}
	base := layout.DefaultStyle()
	eff := base.Merge(o.BaseStyle)
	for _, c := range attrCodecs {
		if v := c.get(&eff); v != c.get(&base) {
			out = append(out, dsl.Property{Key: c.key, Value: v, Quoted: c.quoted})
		}
	}
	return out
}

// Export describes the text, the style nodes and the overridden properties.
func (t *TextLayout) Export() *dsl.Description {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := &dsl.Description{
		Name:    "Paragraph",
		Version: "v1",
		Meta:    append([]dsl.Property(nil), t.meta...),
		Props:   exportOptions(t.opts.Options),
		Text:    t.textLocked(),
	}
	if t.realEmpty || t.tree.Root == nil {
		return d
	}
	var walk func(nd *layout.StyleNode)
	walk = func(nd *layout.StyleNode) {
		if nd.Start < nd.End {
			attrs := styleProps(nd.Style)
			if ref := nd.Style.Ref; ref != nil && nd.Style.Has(layout.AttrSpanRef) {
				attrs = append(attrs, styleProps(ref.Style)...)
				attrs = append(attrs, dsl.Property{Key: refKey, Value: ref.Expr, Quoted: true})
			}
			if len(attrs) > 0 {
				d.Spans = append(d.Spans, dsl.Span{Start: nd.Start, End: nd.End, Attrs: attrs})
			}
		}
		for _, c := range nd.Children {
			walk(c)
		}
	}
	walk(t.tree.Root)
	return d
}

type importedSpan struct {
	start, end int
	style      layout.Style
}

// Import applies a description. Nothing is changed when it is invalid.
func (t *TextLayout) Import(d *dsl.Description, mode ImportMode) error {
	if d == nil {
		return fmt.Errorf("%w: nil description", ErrInvalidDescription)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	opts := t.opts
	if mode == Replace {
		keep := opts.Transform
		opts.Options = layout.DefaultOptions()
		opts.Transform = keep
	}
	for _, p := range d.Props {
		if err := applyProp(&opts.Options, p); err != nil {
			return err
		}
	}

	text := []rune(d.Text)
	n := len(text)
	if mode == Merge && len(text) == 0 {
		n = t.lenLocked()
	}
	spans := make([]importedSpan, 0, len(d.Spans))
	for _, sp := range d.Spans {
		if sp.Start < 0 || sp.End > n || sp.Start >= sp.End {
			return fmt.Errorf("%w: span [%d, %d) outside text of length %d", ErrInvalidDescription, sp.Start, sp.End, n)
		}
		st, err := spanStyle(sp)
		if err != nil {
			return err
		}
		spans = append(spans, importedSpan{start: sp.Start, end: sp.End, style: st})
	}

	switch {
	case mode == Replace:
		t.tree.Root = &layout.StyleNode{}
		t.extra.Root = &layout.StyleNode{}
		t.meta = append([]dsl.Property(nil), d.Meta...)
		t.setTextLocked(text)
	case len(text) > 0:
		t.setTextLocked(text)
	}
	if mode == Merge {
		for _, m := range d.Meta {
			t.setMetaLocked(m)
		}
	}
	cur := t.engine.Text()
	for _, sp := range spans {
		if ref := sp.style.Ref; ref != nil {
			ref.Value = string(cur[sp.start:sp.end])
		}
		t.tree.Apply(sp.start, sp.end, sp.style)
	}
	t.setOptionsLocked(opts)
	t.markLocked(NeedsFullRelayout)
	return nil
}

// ApplyProperty sets one paragraph property or base style attribute by its
// description key, e.g. "line-height" or "color".
func ApplyProperty(o *Options, key, value string) error {
	return applyProp(&o.Options, dsl.Property{Key: key, Value: value})
}

func applyProp(o *layout.Options, p dsl.Property) error {
	for _, c := range propCodecs {
		if c.key == p.Key {
			if err := c.set(o, p.Value); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidDescription, p.Key, err)
			}
			return nil
		}
	}
	handled, err := applyAttr(&o.BaseStyle, p.Key, p.Value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDescription, p.Key, err)
	}
	if !handled {
		return fmt.Errorf("%w: unknown property %q", ErrInvalidDescription, p.Key)
	}
	return nil
}

func spanStyle(sp dsl.Span) (layout.Style, error) {
	var st layout.Style
	ref, hasRef := sp.Attr(refKey)
	for _, a := range sp.Attrs {
		if a.Key == refKey {
			continue
		}
		handled, err := applyAttr(&st, a.Key, a.Value)
		if err != nil {
			return st, fmt.Errorf("%w: span %s: %v", ErrInvalidDescription, a.Key, err)
		}
		if !handled {
			return st, fmt.Errorf("%w: unknown span attribute %q", ErrInvalidDescription, a.Key)
		}
	}
	if hasRef {
		return layout.Style{Set: layout.AttrSpanRef, Ref: &layout.SpanRef{Expr: ref, Style: st}}, nil
	}
	return st, nil
}

func (t *TextLayout) setMetaLocked(m dsl.Property) {
	for i := range t.meta {
		if t.meta[i].Key == m.Key {
			t.meta[i] = m
			return
		}
	}
	t.meta = append(t.meta, m)
}
