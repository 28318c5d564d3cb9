package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/scribe/fonts"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/renderer"
	"github.com/ByLCY/scribe/textlayout"
)

// Renderer measures and draws text layouts via github.com/tdewolff/canvas
// and writes them as PDF. Its metrics use TWIPS rounding.
type Renderer struct {
	baseDir string
	reg     *fonts.Registry
	opts    Options

	// injected resources
	fontBlobs map[string][]byte // by family name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	faces          map[faceKey]*canvas.FontFace
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Device     = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

type faceKey struct {
	spec  layout.FontSpec
	color layout.Color
}

// Options configures the canvas renderer. Page sizes and margins are in
// millimeters; a zero page size fits the page to the layout box.
type Options struct {
	BaseDir    string
	Fonts      map[string]Resource // extra families, regular style, by family name
	PageWidth  float64
	PageHeight float64
	Margin     float64
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer reading font data from reg.
func NewRenderer(reg *fonts.Registry) *Renderer { return NewRendererWithOptions(reg, Options{}) }

// NewRendererWithOptions creates a renderer with injected resources and page setup.
func NewRendererWithOptions(reg *fonts.Registry, opts Options) *Renderer {
	if reg == nil {
		reg = fonts.NewRegistry()
	}
	r := &Renderer{
		baseDir:      opts.BaseDir,
		reg:          reg,
		opts:         opts,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
		faces:        map[faceKey]*canvas.FontFace{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[strings.ToLower(name)] = res.Bytes
			continue
		}
		if res.Path != "" {
			path := res.Path
			if !filepath.IsAbs(path) && r.baseDir != "" {
				path = filepath.Join(r.baseDir, path)
			}
			data, _ := os.ReadFile(path) // ignore error here; the fallback family is used instead
			if len(data) > 0 {
				r.fontBlobs[strings.ToLower(name)] = data
			}
		}
	}
	return r
}

// Render lays tl out with the renderer's metrics and returns a one-page PDF.
func (r *Renderer) Render(tl *textlayout.TextLayout) ([]byte, error) {
	if tl == nil {
		return nil, fmt.Errorf("渲染对象为空")
	}
	tl.SetDevice(r)
	if err := tl.Update(); err != nil {
		return nil, fmt.Errorf("布局失败: %w", err)
	}
	scale := toMmScale(tl.Options().DPI)
	margin := r.opts.Margin
	box, _ := tl.LayoutBounds(layout.Point{})
	width, height := r.opts.PageWidth, r.opts.PageHeight
	if width <= 0 {
		width = box.Dx()*scale + 2*margin
	}
	if height <= 0 {
		height = box.Dy()*scale + 2*margin
	}
	width, height = math.Max(width, 1), math.Max(height, 1)

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	r.applyMeta(writer, tl)
	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	gc := &graphics{r: r, ctx: ctx, scale: scale}
	origin := layout.Point{X: margin / scale, Y: margin / scale}
	if err := tl.Draw(gc, origin); err != nil {
		return nil, err
	}
	if gc.err != nil {
		return nil, gc.err
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, tl *textlayout.TextLayout) {
	if writer == nil {
		return
	}
	get := func(k string) string {
		v, _ := tl.Meta(k)
		return v
	}
	writer.SetInfo(get("title"), get("subject"), get("keywords"), get("author"), get("creator"))
}

// Begin implements layout.Device. Faces are cached on the renderer, so a
// session carries no state of its own.
func (r *Renderer) Begin() layout.MetricsSession { return session{r: r} }

type session struct{ r *Renderer }

func (s session) End() {}

func (s session) SnapToPixels() bool { return false }

func (s session) Ascent(f layout.Font) float64 {
	face, err := s.r.face(f.Spec(), layout.Black)
	if err != nil {
		return 0
	}
	return toPt(face.Metrics().Ascent)
}

func (s session) Descent(f layout.Font) float64 {
	face, err := s.r.face(f.Spec(), layout.Black)
	if err != nil {
		return 0
	}
	return toPt(math.Abs(face.Metrics().Descent))
}

func (s session) MeasureText(f layout.Font, text string) float64 {
	face, err := s.r.face(f.Spec(), layout.Black)
	if err != nil || text == "" {
		return 0
	}
	return toPt(face.TextWidth(text))
}

// CharOffsets measures every prefix so kerning between neighbours is kept.
func (s session) CharOffsets(f layout.Font, text string) []float64 {
	face, err := s.r.face(f.Spec(), layout.Black)
	rs := []rune(text)
	out := make([]float64, len(rs))
	if err != nil {
		return out
	}
	for i := range rs {
		out[i] = toPt(face.TextWidth(string(rs[:i+1])))
	}
	return out
}

func (s session) CharWidth(f layout.Font, c rune) float64 {
	face, err := s.r.face(f.Spec(), layout.Black)
	if err != nil {
		return 0
	}
	return toPt(face.TextWidth(string(c)))
}

// graphics adapts a canvas context to layout.GraphicsContext. scale maps
// device units to millimeters.
type graphics struct {
	r     *Renderer
	ctx   *canvas.Context
	scale float64
	color layout.Color
	font  layout.Font
	err   error
}

func (g *graphics) FillRect(rc layout.Rect, c layout.Color) {
	g.ctx.SetFillColor(colorFromLayout(c))
	g.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	g.ctx.DrawPath(rc.Min.X*g.scale, rc.Min.Y*g.scale, canvas.Rectangle(rc.Dx()*g.scale, rc.Dy()*g.scale))
}

func (g *graphics) SetTextColor(c layout.Color) { g.color = c }

func (g *graphics) SetFont(f layout.Font) { g.font = f }

func (g *graphics) DrawText(p layout.Point, s string) {
	if g.font == nil || g.err != nil {
		return
	}
	// 画布以 mm 为单位，字号仍按 pt 创建，与 DPI 无关
	face, err := g.r.face(g.font.Spec(), g.color)
	if err != nil {
		g.err = err
		return
	}
	g.ctx.DrawText(p.X*g.scale, p.Y*g.scale, canvas.NewTextLine(face, s, canvas.Left))
}

// face returns the cached face for spec drawn in col. Sizes are points.
func (r *Renderer) face(spec layout.FontSpec, col layout.Color) (*canvas.FontFace, error) {
	key := faceKey{spec: spec, color: col}
	r.fontMu.Lock()
	if f, ok := r.faces[key]; ok {
		r.fontMu.Unlock()
		return f, nil
	}
	r.fontMu.Unlock()

	family, style, err := r.ensureFontFamily(spec)
	if err != nil {
		return nil, err
	}
	size := spec.Size
	if size <= 0 {
		size = 12
	}
	f := family.Face(size, colorFromLayout(col), style, canvas.FontNormal)
	r.fontMu.Lock()
	r.faces[key] = f
	r.fontMu.Unlock()
	return f, nil
}

func (r *Renderer) ensureFontFamily(spec layout.FontSpec) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(spec)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := fontStyle(spec)
	familyName := spec.Family
	if familyName == "" {
		familyName = fonts.DefaultFamily
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, spec, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		layout.Logger().Warn("canvas: font unavailable, using fallback", "family", familyName, "err", err)
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, spec layout.FontSpec, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(spec)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// loadFontBytes prefers injected resources, then the registry (registered
// families and the built-in Go fonts).
func (r *Renderer) loadFontBytes(spec layout.FontSpec) ([]byte, error) {
	if blob, ok := r.fontBlobs[strings.ToLower(spec.Family)]; ok {
		return blob, nil
	}
	if data := r.reg.TTF(spec.Family, spec.Bold, spec.Italic); len(data) > 0 {
		return data, nil
	}
	return nil, fmt.Errorf("找不到字体 %s", spec.Family)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.BuiltinFile(fonts.DefaultFamily, false, false))
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("scribe-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func fontStyle(spec layout.FontSpec) canvas.FontStyle {
	result := canvas.FontRegular
	if spec.Bold {
		result = canvas.FontBold
	}
	if spec.Italic {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(spec layout.FontSpec) string {
	return fmt.Sprintf("%s|%t|%t", strings.ToLower(spec.Family), spec.Bold, spec.Italic)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMmScale 返回设备单位到毫米的换算系数。
func toMmScale(dpi float64) float64 {
	if dpi <= 0 {
		dpi = layout.ReferenceDPI
	}
	return layout.ReferenceDPI / dpi * layout.PtToMm
}
