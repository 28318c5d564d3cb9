// Package config loads layout settings from TOML.
//
// Lengths are strings with a unit ("12pt", "5mm", "0.5in"); bare numbers
// are points. The keys of the [layout] and [style] tables are the same keys
// a paragraph description uses, so a config file and a description agree on
// what "line-height" or "first-line" mean.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	canvasrenderer "github.com/ByLCY/scribe/renderer/canvas"
	"github.com/ByLCY/scribe/renderer/raster"
	"github.com/ByLCY/scribe/textlayout"
)

// ErrInvalid wraps every value the config cannot resolve.
var ErrInvalid = errors.New("config: invalid value")

// File is the decoded TOML document.
type File struct {
	Layout Layout            `toml:"layout"`
	Style  Style             `toml:"style"`
	Meta   map[string]string `toml:"meta"`
	Fonts  map[string]Font   `toml:"fonts"`
	PDF    PDF               `toml:"pdf"`
	PNG    PNG               `toml:"png"`

	dir string
}

// Layout holds the paragraph and box settings.
type Layout struct {
	DPI        float64 `toml:"dpi"`
	MaxWidth   string  `toml:"max-width"`
	MaxHeight  string  `toml:"max-height"`
	WordWrap   *bool   `toml:"word-wrap"`
	Align      string  `toml:"align"`
	VAlign     string  `toml:"valign"`
	Direction  string  `toml:"direction"`
	LineHeight string  `toml:"line-height"`
	FirstLine  string  `toml:"first-line"`
	TabStop    string  `toml:"tab-stop"`
	Margin     Margin  `toml:"margin"`
}

type Margin struct {
	Top    string `toml:"top"`
	Right  string `toml:"right"`
	Bottom string `toml:"bottom"`
	Left   string `toml:"left"`
}

// Style is the base text style.
type Style struct {
	Font       string `toml:"font"`
	Size       string `toml:"size"`
	Bold       *bool  `toml:"bold"`
	Italic     *bool  `toml:"italic"`
	Underline  *bool  `toml:"underline"`
	Strikeout  *bool  `toml:"strikeout"`
	Color      string `toml:"color"`
	Background string `toml:"background"`
}

// Font lists the files of one family; paths are relative to the config file.
type Font struct {
	Regular    string `toml:"regular"`
	Bold       string `toml:"bold"`
	Italic     string `toml:"italic"`
	BoldItalic string `toml:"bold-italic"`
}

// PDF is the page setup of the canvas backend.
type PDF struct {
	PageWidth  string `toml:"page-width"`
	PageHeight string `toml:"page-height"`
	Margin     string `toml:"margin"`
}

// PNG is the image setup of the raster backend.
type PNG struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Padding    int    `toml:"padding"`
	Background string `toml:"background"`
}

// Load reads and decodes path. Font paths resolve against its directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes a TOML document. Unknown keys are an error.
func Parse(data []byte) (*File, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: unknown keys\n%s", ErrInvalid, strict.String())
		}
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &f, nil
}

type setting struct{ key, value string }

func (f *File) settings() []setting {
	l, s := f.Layout, f.Style
	out := []setting{
		{"max-width", l.MaxWidth},
		{"max-height", l.MaxHeight},
		{"align", l.Align},
		{"valign", l.VAlign},
		{"direction", l.Direction},
		{"line-height", l.LineHeight},
		{"first-line", l.FirstLine},
		{"tab-stop", l.TabStop},
		{"margin-top", l.Margin.Top},
		{"margin-right", l.Margin.Right},
		{"margin-bottom", l.Margin.Bottom},
		{"margin-left", l.Margin.Left},
		{"font", s.Font},
		{"size", s.Size},
		{"color", s.Color},
		{"background", s.Background},
	}
	if l.DPI != 0 {
		out = append(out, setting{"dpi", strconv.FormatFloat(l.DPI, 'f', -1, 64)})
	}
	for _, b := range []struct {
		key string
		v   *bool
	}{
		{"word-wrap", l.WordWrap},
		{"bold", s.Bold},
		{"italic", s.Italic},
		{"underline", s.Underline},
		{"strikeout", s.Strikeout},
	} {
		if b.v != nil {
			out = append(out, setting{b.key, strconv.FormatBool(*b.v)})
		}
	}
	return out
}

// Options resolves the file over the defaults. Unset keys keep their default.
func (f *File) Options() (textlayout.Options, error) {
	o := textlayout.DefaultOptions()
	for _, s := range f.settings() {
		if s.value == "" {
			continue
		}
		if err := textlayout.ApplyProperty(&o, s.key, s.value); err != nil {
			return o, fmt.Errorf("%w: %s = %q: %v", ErrInvalid, s.key, s.value, err)
		}
	}
	return o, nil
}

// Apply sets the options and the metadata on tl.
func (f *File) Apply(tl *textlayout.TextLayout) error {
	o, err := f.Options()
	if err != nil {
		return err
	}
	tl.SetOptions(o)
	for k, v := range f.Meta {
		tl.SetMeta(k, v)
	}
	return nil
}

// RegisterFonts loads the [fonts] tables into reg.
func (f *File) RegisterFonts(reg *fonts.Registry) error {
	for family, ff := range f.Fonts {
		for _, v := range []struct {
			path         string
			bold, italic bool
		}{
			{ff.Regular, false, false},
			{ff.Bold, true, false},
			{ff.Italic, false, true},
			{ff.BoldItalic, true, true},
		} {
			if v.path == "" {
				continue
			}
			path := v.path
			if !filepath.IsAbs(path) && f.dir != "" {
				path = filepath.Join(f.dir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("读取字体 %s 失败: %w", path, err)
			}
			if err := reg.Register(family, v.bold, v.italic, data); err != nil {
				return fmt.Errorf("注册字体 %s 失败: %w", family, err)
			}
		}
	}
	return nil
}

// CanvasOptions converts the [pdf] table; lengths become millimeters.
func (f *File) CanvasOptions() (canvasrenderer.Options, error) {
	var o canvasrenderer.Options
	o.BaseDir = f.dir
	for _, v := range []struct {
		key string
		raw string
		dst *float64
	}{
		{"pdf.page-width", f.PDF.PageWidth, &o.PageWidth},
		{"pdf.page-height", f.PDF.PageHeight, &o.PageHeight},
		{"pdf.margin", f.PDF.Margin, &o.Margin},
	} {
		if v.raw == "" {
			continue
		}
		mm, err := millimeters(v.raw)
		if err != nil {
			return o, fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = mm
	}
	return o, nil
}

// RasterOptions converts the [png] table.
func (f *File) RasterOptions() (raster.Options, error) {
	o := raster.Options{
		Width:      f.PNG.Width,
		Height:     f.PNG.Height,
		Padding:    f.PNG.Padding,
		Background: layout.White,
	}
	if o.Width < 0 || o.Height < 0 || o.Padding < 0 {
		return o, fmt.Errorf("%w: png sizes must not be negative", ErrInvalid)
	}
	if f.PNG.Background != "" {
		c, ok := layout.ParseColor(f.PNG.Background)
		if !ok {
			return o, fmt.Errorf("%w: png.background = %q", ErrInvalid, f.PNG.Background)
		}
		o.Background = c
	}
	return o, nil
}

// millimeters parses a length; bare numbers are points like everywhere else.
func millimeters(v string) (float64, error) {
	pt, ok := layout.ParsePoints(v)
	if !ok || pt < 0 {
		return 0, fmt.Errorf("%w: length %q", ErrInvalid, v)
	}
	return pt * layout.PtToMm, nil
}
