package dsl

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoParagraph is returned when a document carries no paragraph section.
var ErrNoParagraph = errors.New("dsl: document has no paragraph section")

// Property is one key/value pair in its authored form.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	// Quoted marks values written as string literals.
	Quoted bool `json:"quoted,omitempty"`
}

// Span applies a set of style attributes to the rune range [Start, End).
type Span struct {
	Start int        `json:"start"`
	End   int        `json:"end"`
	Attrs []Property `json:"attrs"`
}

// Description is the typed form of a paragraph description.
type Description struct {
	Name    string     `json:"name"`
	Version string     `json:"version"`
	Meta    []Property `json:"meta,omitempty"`
	Props   []Property `json:"props,omitempty"`
	Text    string     `json:"text"`
	Spans   []Span     `json:"spans,omitempty"`
}

// Prop returns the last value assigned to key.
func (d *Description) Prop(key string) (string, bool) {
	return lookup(d.Props, key)
}

// MetaValue returns the last metadata value assigned to key.
func (d *Description) MetaValue(key string) (string, bool) {
	return lookup(d.Meta, key)
}

// Attr returns the last value assigned to key inside the span.
func (s Span) Attr(key string) (string, bool) {
	return lookup(s.Attrs, key)
}

func lookup(props []Property, key string) (string, bool) {
	for i := len(props) - 1; i >= 0; i-- {
		if props[i].Key == key {
			return props[i].Value, true
		}
	}
	return "", false
}

// ParseDescription parses and decodes a paragraph description.
func ParseDescription(r io.Reader) (*Description, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	return Decode(doc)
}

// Decode converts the AST into a Description. Multiple paragraph sections
// are joined with a newline and their span offsets shifted accordingly.
func Decode(doc *Document) (*Description, error) {
	if doc == nil {
		return nil, ErrNoParagraph
	}
	d := &Description{Name: doc.Name, Version: doc.Version}
	found := false
	for _, sec := range doc.Sections {
		switch {
		case sec.Meta != nil:
			props, err := assignments(sec.Meta.Block, "meta", true)
			if err != nil {
				return nil, err
			}
			d.Meta = append(d.Meta, props...)
		case sec.Paragraph != nil:
			if found {
				d.Text += "\n"
			}
			found = true
			if err := d.decodeParagraph(sec.Paragraph); err != nil {
				return nil, err
			}
		}
	}
	if !found {
		return nil, ErrNoParagraph
	}
	return d, nil
}

func (d *Description) decodeParagraph(p *ParagraphSection) error {
	if p.Block == nil {
		return nil
	}
	offset := len([]rune(d.Text))
	var text strings.Builder
	for _, st := range p.Block.Statements {
		switch {
		case st.Text != nil:
			text.WriteString(string(st.Text.Value))
		case st.Assignment != nil:
			a := st.Assignment
			prop, err := property(a, false)
			if err != nil {
				return err
			}
			if a.Key == "text" {
				text.WriteString(prop.Value)
				continue
			}
			d.Props = append(d.Props, prop)
		case st.Command != nil:
			sp, err := decodeSpan(st.Command)
			if err != nil {
				return err
			}
			sp.Start += offset
			sp.End += offset
			d.Spans = append(d.Spans, sp)
		}
	}
	d.Text += text.String()
	return nil
}

func decodeSpan(c *Command) (Span, error) {
	if c.Name != "span" {
		return Span{}, fmt.Errorf("%s: unknown command %q in paragraph", c.Pos, c.Name)
	}
	if len(c.Args) != 2 {
		return Span{}, fmt.Errorf("%s: span expects start and end, got %d args", c.Pos, len(c.Args))
	}
	start, err := strconv.Atoi(c.Args[0].Value)
	if err != nil {
		return Span{}, fmt.Errorf("%s: span start: %w", c.Pos, err)
	}
	end, err := strconv.Atoi(c.Args[1].Value)
	if err != nil {
		return Span{}, fmt.Errorf("%s: span end: %w", c.Pos, err)
	}
	if start < 0 || end < start {
		return Span{}, fmt.Errorf("%s: invalid span range [%d, %d)", c.Pos, start, end)
	}
	attrs, err := assignments(c.Block, "span", false)
	if err != nil {
		return Span{}, err
	}
	return Span{Start: start, End: end, Attrs: attrs}, nil
}

func assignments(b *Block, where string, lists bool) ([]Property, error) {
	if b == nil {
		return nil, nil
	}
	var out []Property
	for _, st := range b.Statements {
		if st.Assignment == nil {
			return nil, fmt.Errorf("%s block only accepts key: value statements", where)
		}
		p, err := property(st.Assignment, lists)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// property converts an assignment. Arrays are only accepted where lists
// is set (metadata such as keywords) and are flattened to one string.
func property(a *Assignment, lists bool) (Property, error) {
	v := a.Value
	if v == nil || v.Object != nil || (v.Array != nil && !lists) {
		return Property{}, fmt.Errorf("%s: %s expects a single value", a.Pos, a.Key)
	}
	return Property{Key: a.Key, Value: v.Text(), Quoted: v.String != nil || v.Array != nil}, nil
}

var bareValue = regexp.MustCompile(`^(?:-?(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%|x)?|#[0-9A-Fa-f]{3,8}|[A-Za-z_][A-Za-z0-9_-]*)$`)

// Format writes d in the paragraph description syntax accepted by Parse.
func (d *Description) Format(w io.Writer) error {
	name, version := d.Name, d.Version
	if name == "" {
		name = "Paragraph"
	}
	if version == "" {
		version = "v1"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "doc %s %s {\n", name, version)
	if len(d.Meta) > 0 {
		b.WriteString("  meta {\n")
		writeProps(&b, d.Meta, "    ")
		b.WriteString("  }\n")
	}
	b.WriteString("  paragraph {\n")
	writeProps(&b, d.Props, "    ")
	fmt.Fprintf(&b, "    text: %s\n", strconv.Quote(d.Text))
	for _, sp := range d.Spans {
		fmt.Fprintf(&b, "    span %d %d {\n", sp.Start, sp.End)
		writeProps(&b, sp.Attrs, "      ")
		b.WriteString("    }\n")
	}
	b.WriteString("  }\n}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the formatted description.
func (d *Description) String() string {
	var b strings.Builder
	_ = d.Format(&b)
	return b.String()
}

func writeProps(b *strings.Builder, props []Property, indent string) {
	for _, p := range props {
		v := p.Value
		if p.Quoted || !bareValue.MatchString(v) {
			v = strconv.Quote(v)
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, p.Key, v)
	}
}
