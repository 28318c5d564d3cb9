package dsl_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/dsl"
)

func TestDecodeDescription(t *testing.T) {
	d, err := dsl.ParseDescription(strings.NewReader(sampleDSL))
	require.NoError(t, err)

	assert.Equal(t, "Hello\tworld", d.Text)
	title, ok := d.MetaValue("title")
	assert.True(t, ok)
	assert.Equal(t, "Greeting", title)

	align, _ := d.Prop("align")
	assert.Equal(t, "center", align)
	indent, _ := d.Prop("first-line")
	assert.Equal(t, "-8pt", indent)
	_, ok = d.Prop("text")
	assert.False(t, ok, "text is not a property")

	require.Len(t, d.Spans, 2)
	assert.Equal(t, 0, d.Spans[0].Start)
	assert.Equal(t, 5, d.Spans[0].End)
	size, _ := d.Spans[0].Attr("size")
	assert.Equal(t, "14pt", size)
	font, _ := d.Spans[0].Attr("font")
	assert.Equal(t, "Go", font)
	ref, _ := d.Spans[1].Attr("ref")
	assert.Equal(t, "user.name", ref)
}

func TestDecodeJoinsParagraphs(t *testing.T) {
	d, err := dsl.ParseDescription(strings.NewReader(`
doc Paragraph v1 {
  paragraph {
    text: "one"
  }
  paragraph {
    "two"
    span 0 3 { bold: true }
  }
}`))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", d.Text)
	require.Len(t, d.Spans, 1)
	assert.Equal(t, 4, d.Spans[0].Start)
	assert.Equal(t, 7, d.Spans[0].End)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"no paragraph":  `doc Paragraph v1 { meta { title: "x" } }`,
		"bad command":   `doc Paragraph v1 { paragraph { frame 1 2 } }`,
		"span arity":    `doc Paragraph v1 { paragraph { span 1 { bold: true } } }`,
		"reverse range": `doc Paragraph v1 { paragraph { span 5 1 { bold: true } } }`,
		"span literal":  `doc Paragraph v1 { paragraph { span 0 1 { "x" } } }`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := dsl.ParseDescription(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
	_, err := dsl.Decode(nil)
	assert.ErrorIs(t, err, dsl.ErrNoParagraph)
}

func TestFormatRoundTrip(t *testing.T) {
	in := &dsl.Description{
		Meta: []dsl.Property{{Key: "title", Value: "Report", Quoted: true}},
		Props: []dsl.Property{
			{Key: "align", Value: "right"},
			{Key: "margin-left", Value: "12pt"},
			{Key: "first-line", Value: "-4pt"},
		},
		Text: "a b \"quoted\"",
		Spans: []dsl.Span{{Start: 0, End: 1, Attrs: []dsl.Property{
			{Key: "color", Value: "#00FF00"},
			{Key: "font", Value: "Go Mono"},
		}}},
	}
	src := in.String()
	assert.Contains(t, src, "doc Paragraph v1 {")
	assert.Contains(t, src, `font: "Go Mono"`)
	assert.Contains(t, src, "color: #00FF00")

	out, err := dsl.ParseDescription(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, in.Text, out.Text)
	assert.Equal(t, in.Props, out.Props)
	assert.Equal(t, in.Meta, out.Meta)
	require.Len(t, out.Spans, 1)
	assert.Equal(t, in.Spans[0].Attrs[0], out.Spans[0].Attrs[0])
	assert.Equal(t, dsl.Property{Key: "font", Value: "Go Mono", Quoted: true}, out.Spans[0].Attrs[1])
}

func TestColorLiterals(t *testing.T) {
	d, err := dsl.ParseDescription(strings.NewReader(`doc Paragraph v1 {
  paragraph {
    text: "abc"
    span 0 1 { color: #FF0000 }
    span 1 2 { color: #FF000080; background: #abc }
  }
}`))
	require.NoError(t, err)
	require.Len(t, d.Spans, 2)
	c, _ := d.Spans[0].Attr("color")
	assert.Equal(t, "#FF0000", c)
	c, _ = d.Spans[1].Attr("color")
	assert.Equal(t, "#FF000080", c)
	bg, _ := d.Spans[1].Attr("background")
	assert.Equal(t, "#abc", bg)
}

func TestDecodeRejectsNonScalarValues(t *testing.T) {
	for name, src := range map[string]string{
		"text array":  `doc Paragraph v1 { paragraph { text: [ "a" ] } }`,
		"prop object": `doc Paragraph v1 { paragraph { align: { x: 1 } } }`,
		"span array":  `doc Paragraph v1 { paragraph { span 0 1 { color: [ #fff ] } } }`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := dsl.ParseDescription(strings.NewReader(src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "expects a single value")
		})
	}

	d, err := dsl.ParseDescription(strings.NewReader(sampleDSL))
	require.NoError(t, err)
	kw, _ := d.MetaValue("keywords")
	assert.Equal(t, "demo, internal", kw)
}

func TestParseShippedExample(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "examples", "demo.dsl"))
	require.NoError(t, err)
	defer f.Close()

	d, err := dsl.ParseDescription(f)
	require.NoError(t, err)
	assert.Equal(t, "Styled spans survive export and import.", d.Text)
	require.Len(t, d.Spans, 2)
	c, _ := d.Spans[0].Attr("color")
	assert.Equal(t, "#aa2200", c)
	for _, sp := range d.Spans {
		assert.LessOrEqual(t, sp.End, len([]rune(d.Text)))
	}
}
