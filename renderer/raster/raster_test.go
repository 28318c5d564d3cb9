package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/textlayout"
)

func TestRenderImageFitsLayout(t *testing.T) {
	reg := fonts.NewBasicRegistry()
	tl := textlayout.New(reg, nil, textlayout.DefaultOptions())
	defer tl.Close()
	tl.SetText("Hi")
	tl.ApplyStyle(1, 2, layout.Style{Set: layout.AttrBackground, Background: layout.Color{B: 255, A: 255}})

	img, err := New(reg, Options{Padding: 3}).RenderImage(tl)
	require.NoError(t, err)
	// 7x13 bitmap face: two glyphs of 7px, 13px line
	assert.Equal(t, 14+6, img.Bounds().Dx())
	assert.Equal(t, 13+6, img.Bounds().Dy())

	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).R, "padding keeps the background")
	bg := img.RGBAAt(3+7+1, 3+1)
	assert.Equal(t, uint8(255), bg.B)
	assert.Equal(t, uint8(0), bg.R, "second glyph sits on its run background")

	inked := false
	for y := 3; y < 16 && !inked; y++ {
		for x := 3; x < 10; x++ {
			if c := img.RGBAAt(x, y); c.R < 128 {
				inked = true
				break
			}
		}
	}
	assert.True(t, inked, "first glyph should leave dark pixels")
}

func TestRenderEncodesPNG(t *testing.T) {
	reg := fonts.NewRegistry()
	opts := textlayout.DefaultOptions()
	opts.DPI = 144
	tl := textlayout.New(reg, nil, opts)
	defer tl.Close()
	tl.SetText("Hello\nworld")

	out, err := New(reg, Options{}).Render(tl)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dy(), 30, "two lines at 144 DPI")
	tl.Close()
	assert.Equal(t, 0, reg.Live(), "scaled faces are released after drawing")

	_, err = New(reg, Options{}).Render(nil)
	assert.Error(t, err)
}
