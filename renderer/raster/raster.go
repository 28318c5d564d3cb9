// Package raster draws text layouts into an RGBA image with x/image font
// drawers and encodes them as PNG. Its metrics snap to whole pixels.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/textlayout"
)

// Options configures the raster renderer. Sizes are pixels; a zero width or
// height fits the image to the layout box.
type Options struct {
	Width      int
	Height     int
	Padding    int
	Background layout.Color
}

// Renderer renders layouts to PNG.
type Renderer struct {
	reg  *fonts.Registry
	opts Options
}

var _ renderer.Renderer = (*Renderer)(nil)

// New returns a raster renderer measuring and drawing with reg.
func New(reg *fonts.Registry, opts Options) *Renderer {
	if reg == nil {
		reg = fonts.NewRegistry()
	}
	return &Renderer{reg: reg, opts: opts}
}

// Render implements renderer.Renderer.
func (r *Renderer) Render(tl *textlayout.TextLayout) ([]byte, error) {
	img, err := r.RenderImage(tl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderImage lays tl out with pixel snapping and draws it.
func (r *Renderer) RenderImage(tl *textlayout.TextLayout) (*image.RGBA, error) {
	if tl == nil {
		return nil, fmt.Errorf("渲染对象为空")
	}
	tl.SetDevice(r.reg.Device(true))
	if err := tl.Update(); err != nil {
		return nil, fmt.Errorf("布局失败: %w", err)
	}
	box, _ := tl.LayoutBounds(layout.Point{})
	pad := r.opts.Padding
	w, h := r.opts.Width, r.opts.Height
	if w <= 0 {
		w = int(math.Ceil(box.Dx())) + 2*pad
	}
	if h <= 0 {
		h = int(math.Ceil(box.Dy())) + 2*pad
	}
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	bg := r.opts.Background
	if bg == (layout.Color{}) {
		bg = layout.White
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(toNRGBA(bg)), image.Point{}, draw.Src)

	gc := &graphics{
		img:   img,
		reg:   r.reg,
		scale: tl.Options().DPI / layout.ReferenceDPI,
		held:  map[layout.FontSpec]layout.Font{},
	}
	if gc.scale <= 0 {
		gc.scale = 1
	}
	defer gc.release()
	if err := tl.Draw(gc, layout.Point{X: float64(pad), Y: float64(pad)}); err != nil {
		return nil, err
	}
	return img, nil
}

// graphics draws into an RGBA image. Faces are requested at the device
// resolution, so fonts are rescaled when the layout DPI is not 72.
type graphics struct {
	img   *image.RGBA
	reg   *fonts.Registry
	scale float64
	src   *image.Uniform
	face  font.Face
	held  map[layout.FontSpec]layout.Font
}

func (g *graphics) FillRect(rc layout.Rect, c layout.Color) {
	rect := image.Rect(
		int(math.Floor(rc.Min.X)), int(math.Floor(rc.Min.Y)),
		int(math.Ceil(rc.Max.X)), int(math.Ceil(rc.Max.Y)),
	)
	draw.Draw(g.img, rect, image.NewUniform(toNRGBA(c)), image.Point{}, draw.Over)
}

func (g *graphics) SetTextColor(c layout.Color) { g.src = image.NewUniform(toNRGBA(c)) }

func (g *graphics) SetFont(f layout.Font) {
	if g.scale == 1 {
		g.face = fonts.Face(f)
		return
	}
	spec := f.Spec()
	spec.Size *= g.scale
	h, ok := g.held[spec]
	if !ok {
		h = g.reg.Font(spec)
		g.held[spec] = h
	}
	g.face = fonts.Face(h)
}

func (g *graphics) DrawText(p layout.Point, s string) {
	if g.face == nil {
		return
	}
	src := g.src
	if src == nil {
		src = image.NewUniform(color.Black)
	}
	d := font.Drawer{
		Dst:  g.img,
		Src:  src,
		Face: g.face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(p.X * 64)), Y: fixed.Int26_6(math.Round(p.Y * 64))},
	}
	d.DrawString(s)
}

func (g *graphics) release() {
	for _, h := range g.held {
		h.Release()
	}
	clear(g.held)
}

func toNRGBA(c layout.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
