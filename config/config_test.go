package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/textlayout"
)

const sample = `
[layout]
dpi = 144.0
max-width = "2in"
word-wrap = false
align = "center"
valign = "bottom"
line-height = "1.5x"
first-line = "-8pt"
tab-stop = "1cm"

[layout.margin]
left = "5mm"
top = "4"

[style]
font = "goregular"
size = "14pt"
bold = true
color = "#336699"

[meta]
title = "Sample"

[pdf]
page-width = "210mm"
margin = "10mm"

[png]
width = 320
padding = 4
background = "#eee"
`

func TestParseOptions(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	o, err := f.Options()
	require.NoError(t, err)
	assert.Equal(t, 144.0, o.DPI)
	assert.Equal(t, 144.0, o.MaxWidth)
	assert.False(t, o.WordWrap)
	assert.Equal(t, layout.AlignCenter, o.Paragraph.Align)
	assert.Equal(t, layout.AlignBottom, o.VAlign)
	assert.Equal(t, layout.LineHeightFactor(1.5), o.Paragraph.LineHeight)
	assert.Equal(t, -8.0, o.Paragraph.FirstLineIndent)
	assert.InDelta(t, 28.35, o.Paragraph.TabStop, 0.01)
	assert.InDelta(t, 14.17, o.Paragraph.Margins.Left, 0.01)
	assert.Equal(t, 4.0, o.Paragraph.Margins.Top)

	assert.True(t, o.BaseStyle.Has(layout.AttrFontName|layout.AttrFontSize|layout.AttrBold|layout.AttrColor))
	assert.Equal(t, "goregular", o.BaseStyle.FontName)
	assert.Equal(t, 14.0, o.BaseStyle.FontSize)
	assert.Equal(t, layout.Color{R: 0x33, G: 0x66, B: 0x99, A: 0xff}, o.BaseStyle.Color)
	assert.False(t, o.BaseStyle.Has(layout.AttrItalic))
}

func TestParseKeepsDefaults(t *testing.T) {
	f, err := Parse([]byte("[meta]\nauthor = \"me\"\n"))
	require.NoError(t, err)
	o, err := f.Options()
	require.NoError(t, err)
	assert.Equal(t, textlayout.DefaultOptions(), o)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[layout]\nwidht = \"2in\"\n"))
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "widht")

	_, err = Parse([]byte("[layout\n"))
	require.Error(t, err)
}

func TestOptionsRejectsBadValues(t *testing.T) {
	for _, doc := range []string{
		"[layout]\nalign = \"middle\"\n",
		"[layout]\nline-height = \"-2x\"\n",
		"[layout]\nmax-width = \"wide\"\n",
		"[style]\ncolor = \"blue\"\n",
		"[style]\nsize = \"0pt\"\n",
	} {
		f, err := Parse([]byte(doc))
		require.NoError(t, err, doc)
		_, err = f.Options()
		assert.ErrorIs(t, err, ErrInvalid, doc)
	}
}

func TestBackendOptions(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	co, err := f.CanvasOptions()
	require.NoError(t, err)
	assert.InDelta(t, 210, co.PageWidth, 0.01)
	assert.Zero(t, co.PageHeight)
	assert.InDelta(t, 10, co.Margin, 0.01)

	ro, err := f.RasterOptions()
	require.NoError(t, err)
	assert.Equal(t, 320, ro.Width)
	assert.Equal(t, 4, ro.Padding)
	assert.Equal(t, layout.Color{R: 0xee, G: 0xee, B: 0xee, A: 0xff}, ro.Background)

	f.PNG.Background = "nope"
	_, err = f.RasterOptions()
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadApplyAndFonts(t *testing.T) {
	dir := t.TempDir()
	data, err := fonts.Load(fonts.BuiltinFile(fonts.DefaultFamily, false, false))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.ttf"), data, 0o644))

	doc := "[layout]\nalign = \"right\"\n[meta]\ntitle = \"Loaded\"\n[fonts.body]\nregular = \"body.ttf\"\n"
	path := filepath.Join(dir, "layout.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f, err := Load(path)
	require.NoError(t, err)

	reg := fonts.NewRegistry()
	require.NoError(t, f.RegisterFonts(reg))
	assert.NotEmpty(t, reg.TTF("body", false, false))

	tl := textlayout.New(reg, reg.Device(false), textlayout.DefaultOptions())
	defer tl.Close()
	require.NoError(t, f.Apply(tl))
	assert.Equal(t, layout.AlignRight, tl.Options().Paragraph.Align)
	title, ok := tl.Meta("title")
	assert.True(t, ok)
	assert.Equal(t, "Loaded", title)

	f.Fonts["body"] = Font{Bold: "missing.ttf"}
	assert.Error(t, f.RegisterFonts(reg))

	_, err = Load(filepath.Join(dir, "absent.toml"))
	assert.Error(t, err)
}

func TestShippedExamples(t *testing.T) {
	f, err := Load(filepath.Join("..", "examples", "layout.toml"))
	require.NoError(t, err)

	o, err := f.Options()
	require.NoError(t, err)
	assert.Equal(t, 216.0, o.MaxWidth)
	assert.Equal(t, layout.LineHeightFactor(1.3), o.Paragraph.LineHeight)
	assert.Equal(t, 12.0, o.Paragraph.FirstLineIndent)
	assert.Equal(t, 36.0, o.Paragraph.TabStop)
	assert.Equal(t, 4.0, o.Paragraph.Margins.Left)
	assert.Equal(t, 4.0, o.Paragraph.Margins.Right)
	assert.Equal(t, 12.0, o.BaseStyle.FontSize)

	co, err := f.CanvasOptions()
	require.NoError(t, err)
	assert.InDelta(t, 10, co.Margin, 1e-9)
	ro, err := f.RasterOptions()
	require.NoError(t, err)
	assert.Equal(t, 8, ro.Padding)

	// 与命令行相同：配置打底，再合并段落描述
	raw, err := os.ReadFile(filepath.Join("..", "examples", "demo.dsl"))
	require.NoError(t, err)
	d, err := dsl.ParseDescription(strings.NewReader(string(raw)))
	require.NoError(t, err)

	reg := fonts.NewRegistry()
	tl := textlayout.New(reg, reg.Device(false), textlayout.DefaultOptions())
	defer tl.Close()
	require.NoError(t, f.Apply(tl))
	require.NoError(t, tl.Import(d, textlayout.Merge))

	got := tl.Options()
	assert.Equal(t, layout.AlignJustify, got.Paragraph.Align)
	assert.Equal(t, layout.LineHeightFactor(1.2), got.Paragraph.LineHeight)
	assert.Equal(t, 216.0, got.MaxWidth)
	assert.Equal(t, "Styled spans survive export and import.", tl.Text())
	title, _ := tl.Meta("title")
	assert.Equal(t, "scribe description demo", title)
	author, _ := tl.Meta("author")
	assert.Equal(t, "scribe", author)
	assert.Len(t, tl.Export().Spans, 2)

	b, ok := tl.TypographicBounds(layout.Point{})
	require.True(t, ok)
	assert.LessOrEqual(t, b.Max.X, 216.0+1e-9)
	assert.Positive(t, b.Dy())
}
