package layout

import (
	"math"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths, line-height,
// DPI scaling and the rounding policy applied to every cached metric.

// Unit represents the original unit of a length value as specified by the author.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm (1in = 72pt = 25.4mm).
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// ReferenceDPI is the resolution at which metrics providers report distances.
const ReferenceDPI = 72.0

// TwipsPerPoint is the fixed-point sub-unit used for sub-pixel rounding.
const TwipsPerPoint = 20

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts this length to target unit. Supported targets: UnitMM, UnitPT.
// Inches reach points as *72 so whole inches stay exact.
func (l Length) To(target Unit) float64 {
	var pt, mm float64
	switch l.Unit {
	case UnitMM:
		pt, mm = l.Value*MmToPt, l.Value
	case UnitCM:
		pt, mm = l.Value*10*MmToPt, l.Value*10
	case UnitIN:
		pt, mm = l.Value*72, l.Value*25.4
	case UnitPT:
		pt, mm = l.Value, l.Value*PtToMm
	default:
		// unit-less: the caller decides what the number means
		return l.Value
	}
	if target == UnitPT {
		return pt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// String formats the length back into its authored form, e.g. "12pt".
func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// ParseRawLengthStr parses a length string preserving its unit.
func ParseRawLengthStr(value string) Length {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}

// ParsePoints parses a length and returns it in points; unit-less numbers are points already.
func ParsePoints(value string) (float64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	l := ParseRawLengthStr(v)
	if l.Unit == UnitNone {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return 0, false
		}
		return l.Value, true
	}
	return l.ToPT(), true
}

// LineHeight is the layout line-height setting.
//
// A positive value is an absolute height in points, LineHeightNormal falls
// back to ascent+descent, and a negative value is a multiplier of
// ascent+descent (-1.5 means 150%).
type LineHeight float64

// LineHeightNormal selects the font's natural line height.
const LineHeightNormal LineHeight = 0

// LineHeightPoints returns an absolute line height.
func LineHeightPoints(pt float64) LineHeight { return LineHeight(math.Abs(pt)) }

// LineHeightFactor returns a line height proportional to ascent+descent.
func LineHeightFactor(f float64) LineHeight { return LineHeight(-math.Abs(f)) }

// IsNormal reports whether the natural line height is used.
func (h LineHeight) IsNormal() bool { return h == 0 }

// Factor returns the multiplier and true for proportional line heights.
func (h LineHeight) Factor() (float64, bool) {
	if h < 0 {
		return float64(-h), true
	}
	return 0, false
}

// String formats the setting as "normal", "1.2x" or "18pt".
func (h LineHeight) String() string {
	switch {
	case h == 0:
		return "normal"
	case h < 0:
		return strconv.FormatFloat(float64(-h), 'f', -1, 64) + "x"
	default:
		return strconv.FormatFloat(float64(h), 'f', -1, 64) + "pt"
	}
}

// ParseLineHeight accepts "normal", a factor such as "1.2x" or an absolute length.
func ParseLineHeight(value string) (LineHeight, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "" || v == "normal":
		return LineHeightNormal, v != ""
	case strings.HasSuffix(v, "x"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil || f <= 0 {
			return LineHeightNormal, false
		}
		return LineHeightFactor(f), true
	case strings.HasSuffix(v, "%"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil || f <= 0 {
			return LineHeightNormal, false
		}
		return LineHeightFactor(f / 100), true
	}
	pt, ok := ParsePoints(v)
	if !ok || pt <= 0 {
		return LineHeightNormal, false
	}
	return LineHeightPoints(pt), true
}

// Resolve computes the line height in device units for a line whose
// natural height is ascent+descent. scale is activeDPI/ReferenceDPI.
func (h LineHeight) Resolve(natural float64, scale float64, r Rounding) float64 {
	switch {
	case h > 0:
		return r.Round(float64(h) * scale)
	case h < 0:
		return r.Round(natural * float64(-h))
	default:
		return natural
	}
}

// Rounding is the policy applied to distances before they are cached.
type Rounding int

const (
	// RoundTwips rounds to the nearest 1/20 unit (vector backends).
	RoundTwips Rounding = iota
	// RoundPixel rounds to whole device pixels (pixel-snapping backends).
	RoundPixel
)

// Round applies the policy. Ties go toward +inf for non-negative values and
// toward -inf for negative values: floor(x+0.5) and ceil(x-0.5).
func (r Rounding) Round(x float64) float64 {
	if r == RoundPixel {
		return roundHalf(x)
	}
	return roundHalf(x*TwipsPerPoint) / TwipsPerPoint
}

func roundHalf(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}

// toTwips converts a device distance to an integer TWIPS count.
func toTwips(x float64) int64 { return int64(roundHalf(x * TwipsPerPoint)) }

// fromTwips converts TWIPS back to device units.
func fromTwips(t int64) float64 { return float64(t) / TwipsPerPoint }

// dpiScale returns the factor that maps reference points to device units.
func dpiScale(dpi float64) float64 {
	if dpi <= 0 {
		return 1
	}
	return dpi / ReferenceDPI
}
