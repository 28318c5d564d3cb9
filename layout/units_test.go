package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestLengthToConversions 覆盖 Length 在常见单位上的转换正确性（到 mm/pt）。
func TestLengthToConversions(t *testing.T) {
	in := Length{Value: 1, Unit: UnitIN}
	if got := in.ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("1in 转 mm 期望 25.4，实际 %g", got)
	}
	cm := Length{Value: 2.54, Unit: UnitCM}
	if got := cm.ToMM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("2.54cm 转 mm 期望 25.4，实际 %g", got)
	}
	pt := Length{Value: 12, Unit: UnitPT}
	if got := pt.ToPT(); got != 12 {
		t.Fatalf("12pt 转 pt 期望 12，实际 %g", got)
	}
	mm := Length{Value: 10, Unit: UnitMM}
	if got := mm.ToPT(); math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("10mm 转 pt 期望 %g，实际 %g", 10*MmToPt, got)
	}
}

// TestParsePoints 覆盖带单位与不带单位的长度解析。
func TestParsePoints(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"12pt", 12, true},
		{"-8pt", -8, true},
		{"1in", 72, true},
		{"2in", 144, true},
		{"25.4mm", 72, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, c := range cases {
		got, ok := ParsePoints(c.in)
		if ok != c.ok || math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("ParsePoints(%q) = %g,%v 期望 %g,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

// TestLineHeightResolve 验证行高解析：倍数、绝对值与 normal 三种语义。
func TestLineHeightResolve(t *testing.T) {
	lh, ok := ParseLineHeight("1.2x")
	if !ok {
		t.Fatalf("1.2x 应可解析")
	}
	if got := lh.Resolve(10, 1, RoundTwips); got != 12 {
		t.Fatalf("1.2x 行高期望 12，实际 %g", got)
	}
	lh, _ = ParseLineHeight("150%")
	if got := lh.Resolve(10, 1, RoundTwips); got != 15 {
		t.Fatalf("150%% 行高期望 15，实际 %g", got)
	}
	lh, _ = ParseLineHeight("18pt")
	if got := lh.Resolve(10, 2, RoundTwips); got != 36 {
		t.Fatalf("18pt@2x 行高期望 36，实际 %g", got)
	}
	lh, _ = ParseLineHeight("normal")
	if !lh.IsNormal() || lh.Resolve(10, 2, RoundTwips) != 10 {
		t.Fatalf("normal 行高应等于 ascent+descent")
	}
	for _, in := range []string{"1.2x", "18pt", "normal"} {
		lh, _ := ParseLineHeight(in)
		if lh.String() != in {
			t.Fatalf("行高格式化 %q 得到 %q", in, lh.String())
		}
	}
	if _, ok := ParseLineHeight("-2x"); ok {
		t.Fatalf("负倍数不应被接受")
	}
}

// TestRounding 验证四舍五入策略：正数向 +∞、负数向 -∞ 取整。
func TestRounding(t *testing.T) {
	cases := []struct {
		r    Rounding
		in   float64
		want float64
	}{
		{RoundPixel, 2.5, 3},
		{RoundPixel, -2.5, -3},
		{RoundPixel, 2.49, 2},
		{RoundTwips, 0.025, 0.05},
		{RoundTwips, -0.025, -0.05},
		{RoundTwips, 1.01, 1},
	}
	for _, c := range cases {
		if got := c.r.Round(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("Round(%g) 期望 %g，实际 %g", c.in, c.want, got)
		}
	}
	if toTwips(1.5) != 30 || fromTwips(30) != 1.5 {
		t.Fatalf("TWIPS 换算错误")
	}
}

// TestParseColor 覆盖三种十六进制颜色写法及其格式化。
func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#F00":       {R: 255, A: 255},
		"#0F62FE":    {R: 0x0F, G: 0x62, B: 0xFE, A: 255},
		"#11223380":  {R: 0x11, G: 0x22, B: 0x33, A: 0x80},
		" #ffffff  ": {R: 255, G: 255, B: 255, A: 255},
	}
	for in, want := range cases {
		got, ok := ParseColor(in)
		if !ok || got != want {
			t.Fatalf("解析 %q 期望 %+v，实际 %+v ok=%v", in, want, got, ok)
		}
	}
	for _, bad := range []string{"", "#12", "#GGGGGG", "red"} {
		if _, ok := ParseColor(bad); ok {
			t.Fatalf("%q 不应解析成功", bad)
		}
	}
	if got := (Color{R: 0x0F, G: 0x62, B: 0xFE, A: 255}).Hex(); got != "#0F62FE" {
		t.Fatalf("Hex 期望 #0F62FE，实际 %s", got)
	}
	if got := (Color{R: 1, G: 2, B: 3, A: 4}).Hex(); got != "#01020304" {
		t.Fatalf("Hex 期望 #01020304，实际 %s", got)
	}
}
