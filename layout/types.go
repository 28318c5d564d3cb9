package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 该文件定义布局引擎共用的几何、颜色、方向与对齐类型。

// Point is a position in device units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Rect is an axis-aligned box; Min is the top-left corner.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// R is shorthand for a rectangle from its corners.
func R(x0, y0, x1, y1 float64) Rect {
	return Rect{Min: Point{X: x0, Y: y0}, Max: Point{X: x1, Y: y1}}
}

func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether r encloses no area on either axis.
func (r Rect) Empty() bool { return r.Min.X >= r.Max.X && r.Min.Y >= r.Max.Y }

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Union returns the smallest rectangle containing r and s. A zero Rect is
// treated as "nothing yet" so folding can start from Rect{}.
func (r Rect) Union(s Rect) Rect {
	if r == (Rect{}) {
		return s
	}
	if s == (Rect{}) {
		return r
	}
	return Rect{
		Min: Point{X: math.Min(r.Min.X, s.Min.X), Y: math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, s.Max.X), Y: math.Max(r.Max.Y, s.Max.Y)},
	}
}

// Contains reports whether p lies inside r (max edges exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Affine maps local layout coordinates into caller space:
// x' = A*x + B*y + C, y' = D*x + E*y + F.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity is the identity transform.
var Identity = Affine{A: 1, E: 1}

// Translate returns a translation by (dx, dy).
func Translate(dx, dy float64) Affine { return Affine{A: 1, C: dx, E: 1, F: dy} }

// Scale returns a scaling transform.
func Scale(sx, sy float64) Affine { return Affine{A: sx, E: sy} }

// Mul returns the transform applying b first, then a.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		A: a.A*b.A + a.B*b.D,
		B: a.A*b.B + a.B*b.E,
		C: a.A*b.C + a.B*b.F + a.C,
		D: a.D*b.A + a.E*b.D,
		E: a.D*b.B + a.E*b.E,
		F: a.D*b.C + a.E*b.F + a.F,
	}
}

// Apply maps p.
func (a Affine) Apply(p Point) Point {
	return Point{X: a.A*p.X + a.B*p.Y + a.C, Y: a.D*p.X + a.E*p.Y + a.F}
}

// ApplyRect maps both corners and normalizes the result, so an axis
// inversion still yields Min <= Max.
func (a Affine) ApplyRect(r Rect) Rect {
	p, q := a.Apply(r.Min), a.Apply(r.Max)
	return R(math.Min(p.X, q.X), math.Min(p.Y, q.Y), math.Max(p.X, q.X), math.Max(p.Y, q.Y))
}

// Invert returns the inverse transform; ok is false for singular transforms.
func (a Affine) Invert() (Affine, bool) {
	det := a.A*a.E - a.B*a.D
	if det == 0 {
		return Affine{}, false
	}
	inv := Affine{
		A: a.E / det, B: -a.B / det,
		D: -a.D / det, E: a.A / det,
	}
	inv.C = -(inv.A*a.C + inv.B*a.F)
	inv.F = -(inv.D*a.C + inv.E*a.F)
	return inv, true
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Black is the default text color.
var Black = Color{A: 255}

var White = Color{R: 255, G: 255, B: 255, A: 255}

// Hex formats c as #RRGGBB, or #RRGGBBAA when not opaque.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ParseColor 解析 #RGB、#RRGGBB 与 #RRGGBBAA。
func ParseColor(v string) (Color, bool) {
	h := strings.TrimPrefix(strings.TrimSpace(v), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}

// Direction is a writing direction.
type Direction uint8

const (
	// DirAuto lets the direction oracle pick the paragraph direction.
	DirAuto Direction = iota
	DirLTR
	DirRTL
)

func (d Direction) String() string {
	switch d {
	case DirLTR:
		return "ltr"
	case DirRTL:
		return "rtl"
	default:
		return "auto"
	}
}

// ParseDirection accepts auto/ltr/rtl.
func ParseDirection(v string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "auto", "":
		return DirAuto, true
	case "ltr":
		return DirLTR, true
	case "rtl":
		return DirRTL, true
	}
	return DirAuto, false
}

// HAlign is horizontal alignment of lines inside the layout box.
type HAlign uint8

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a HAlign) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}

// ParseHAlign accepts left/center/right/justify and the start/end aliases.
func ParseHAlign(v string) (HAlign, bool) {
	switch v {
	case "left", "start":
		return AlignLeft, true
	case "center":
		return AlignCenter, true
	case "right", "end":
		return AlignRight, true
	case "justify":
		return AlignJustify, true
	}
	return AlignLeft, false
}

// VAlign is vertical alignment of the text inside the layout box.
type VAlign uint8

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

func (a VAlign) String() string {
	switch a {
	case AlignMiddle:
		return "center"
	case AlignBottom:
		return "bottom"
	default:
		return "top"
	}
}

// ParseVAlign accepts top/center/middle/bottom.
func ParseVAlign(v string) (VAlign, bool) {
	switch v {
	case "top":
		return AlignTop, true
	case "center", "middle":
		return AlignMiddle, true
	case "bottom":
		return AlignBottom, true
	}
	return AlignTop, false
}

// Margins are paragraph margins in points.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

func (m Margins) scaled(scale float64, r Rounding) Margins {
	return Margins{
		Top:    r.Round(m.Top * scale),
		Right:  r.Round(m.Right * scale),
		Bottom: r.Round(m.Bottom * scale),
		Left:   r.Round(m.Left * scale),
	}
}
