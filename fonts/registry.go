package fonts

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/scribe/layout"
)

// Registry resolves font specs to refcounted x/image faces and measures
// text with them. It implements layout.FontService; Device exposes it as a
// layout.Device. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	basic  bool
	data   map[string][]byte // key(family, bold, italic) -> TTF
	parsed map[string]*opentype.Font
	faces  map[layout.FontSpec]*entry
}

type entry struct {
	spec layout.FontSpec
	face font.Face
	refs int
}

// NewRegistry returns a registry serving the built-in Go fonts plus any
// registered families.
func NewRegistry() *Registry {
	return &Registry{
		data:   map[string][]byte{},
		parsed: map[string]*opentype.Font{},
		faces:  map[layout.FontSpec]*entry{},
	}
}

// NewBasicRegistry returns a registry whose faces are all the fixed 7x13
// bitmap face, independent of the requested size. Useful for deterministic
// metrics.
func NewBasicRegistry() *Registry {
	r := NewRegistry()
	r.basic = true
	return r
}

func styleKey(family string, bold, italic bool) string {
	return fmt.Sprintf("%s|%t|%t", strings.ToLower(strings.TrimSpace(family)), bold, italic)
}

// Register adds TTF/OTF data for a family and style.
func (r *Registry) Register(family string, bold, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("fonts: parse %s: %w", family, err)
	}
	key := styleKey(family, bold, italic)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = data
	r.parsed[key] = f
	return nil
}

// TTF returns the font bytes serving a family and style: a registered
// family first, the built-in Go fonts otherwise.
func (r *Registry) TTF(family string, bold, italic bool) []byte {
	r.mu.Lock()
	data, ok := r.data[styleKey(family, bold, italic)]
	r.mu.Unlock()
	if ok {
		return data
	}
	data, _ = Load(BuiltinFile(family, bold, italic))
	return data
}

// Font implements layout.FontService. The handle starts with one reference.
func (r *Registry) Font(spec layout.FontSpec) layout.Font {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.faces[spec]
	if !ok {
		e = &entry{spec: spec, face: r.newFace(spec)}
		r.faces[spec] = e
	}
	e.refs++
	return &Handle{reg: r, e: e}
}

// newFace must be called with mu held.
func (r *Registry) newFace(spec layout.FontSpec) font.Face {
	if r.basic {
		return basicfont.Face7x13
	}
	key := styleKey(spec.Family, spec.Bold, spec.Italic)
	f, ok := r.parsed[key]
	if !ok {
		data := r.data[key]
		if data == nil {
			data, _ = Load(BuiltinFile(spec.Family, spec.Bold, spec.Italic))
		}
		var err error
		if f, err = opentype.Parse(data); err != nil {
			layout.Logger().Warn("fonts: parse failed, using fallback face", "family", spec.Family, "err", err)
			return basicfont.Face7x13
		}
		r.parsed[key] = f
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     layout.ReferenceDPI,
		Hinting: font.HintingNone,
	})
	if err != nil {
		layout.Logger().Warn("fonts: face creation failed, using fallback face", "family", spec.Family, "err", err)
		return basicfont.Face7x13
	}
	return face
}

// Live returns the number of faces with outstanding references.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.faces)
}

// Handle is a reference to a cached face.
type Handle struct {
	reg *Registry
	e   *entry
}

func (h *Handle) Spec() layout.FontSpec { return h.e.spec }

func (h *Handle) Retain() layout.Font {
	h.reg.mu.Lock()
	h.e.refs++
	h.reg.mu.Unlock()
	return h
}

func (h *Handle) Release() {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	h.e.refs--
	if h.e.refs > 0 {
		return
	}
	delete(h.reg.faces, h.e.spec)
	if h.e.face != basicfont.Face7x13 {
		_ = h.e.face.Close()
	}
}

// Face returns the x/image face behind f, or nil for foreign fonts.
func Face(f layout.Font) font.Face {
	if h, ok := f.(*Handle); ok {
		return h.e.face
	}
	return nil
}

// Device returns a layout.Device measuring with the registry's faces.
// snap selects whole-pixel rounding in the engine.
func (r *Registry) Device(snap bool) layout.Device {
	return device{reg: r, snap: snap}
}

type device struct {
	reg  *Registry
	snap bool
}

func (d device) Begin() layout.MetricsSession { return session(d) }

// session measures in points at the reference DPI.
type session struct {
	reg  *Registry
	snap bool
}

func (s session) End() {}

func (s session) SnapToPixels() bool { return s.snap }

func (s session) Ascent(f layout.Font) float64 {
	if face := Face(f); face != nil {
		return toFloat(face.Metrics().Ascent)
	}
	return 0
}

func (s session) Descent(f layout.Font) float64 {
	if face := Face(f); face != nil {
		return toFloat(face.Metrics().Descent)
	}
	return 0
}

func (s session) MeasureText(f layout.Font, text string) float64 {
	face := Face(f)
	if face == nil {
		return 0
	}
	return toFloat(font.MeasureString(face, text))
}

func (s session) CharOffsets(f layout.Font, text string) []float64 {
	face := Face(f)
	out := make([]float64, 0, len(text))
	var x fixed.Int26_6
	prev := rune(-1)
	for _, c := range text {
		if face != nil {
			if prev >= 0 {
				x += face.Kern(prev, c)
			}
			adv, _ := face.GlyphAdvance(c)
			x += adv
		}
		out = append(out, toFloat(x))
		prev = c
	}
	return out
}

func (s session) CharWidth(f layout.Font, c rune) float64 {
	face := Face(f)
	if face == nil {
		return 0
	}
	adv, _ := face.GlyphAdvance(c)
	return toFloat(adv)
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
