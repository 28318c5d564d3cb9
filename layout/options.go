package layout

// FontSpec identifies a font request. Size is in points.
type FontSpec struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// Font is a reference-counted font resource shared by runs.
type Font interface {
	Spec() FontSpec
	// Retain returns the same font with one more reference.
	Retain() Font
	// Release drops one reference.
	Release()
}

// FontService resolves font requests. The returned Font is owned by the caller.
type FontService interface {
	Font(spec FontSpec) Font
}

// MetricsProvider measures text for a font. All distances are points at
// ReferenceDPI; the engine performs DPI scaling and rounding itself.
type MetricsProvider interface {
	Ascent(f Font) float64
	Descent(f Font) float64
	MeasureText(f Font, s string) float64
	// CharOffsets returns, for every rune of s, the advance from the start of
	// s to the end of that rune, kerning included.
	CharOffsets(f Font, s string) []float64
	CharWidth(f Font, r rune) float64
	// SnapToPixels selects RoundPixel instead of RoundTwips.
	SnapToPixels() bool
}

// MetricsSession is a measuring session acquired for one layout pass.
type MetricsSession interface {
	MetricsProvider
	End()
}

// Device hands out measuring sessions.
type Device interface {
	Begin() MetricsSession
}

// GraphicsContext is the narrow drawing contract used by Draw.
type GraphicsContext interface {
	FillRect(r Rect, c Color)
	SetTextColor(c Color)
	SetFont(f Font)
	// DrawText draws s with its baseline starting at p.
	DrawText(p Point, s string)
}

// BackgroundPainter is implemented by graphics contexts that paint run
// backgrounds natively. When PaintsBackgrounds reports true the engine does
// not fill run backgrounds itself.
type BackgroundPainter interface {
	PaintsBackgrounds() bool
	FillRunBackground(r Rect, c Color)
}

// Word is a half-open rune range; a line may break after it.
type Word struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// WordBreaker is the word/line-break oracle.
type WordBreaker interface {
	Words(text []rune) []Word
}

// DirRun starts a direction sub-range at Pos (relative to the analysed text).
type DirRun struct {
	Pos int       `json:"pos"`
	Dir Direction `json:"dir"`
}

// DirectionResolver is the direction oracle. It returns the resolved
// paragraph direction and the direction runs, ordered by Pos.
type DirectionResolver interface {
	Directions(text []rune, base Direction) (Direction, []DirRun)
}

// Options configure a ParagraphLayout. Distances are points.
type Options struct {
	DPI       float64
	MaxWidth  float64 // 0 means unbounded
	MaxHeight float64 // 0 means unbounded
	WordWrap  bool
	VAlign    VAlign
	// Transform is applied after the origin translation, e.g. to absorb an
	// axis inversion or printer scaling of the host.
	Transform *Affine
	Paragraph ParagraphProps
	BaseStyle Style
}

// ParagraphProps are paragraph-level properties.
type ParagraphProps struct {
	Align           HAlign     `json:"align"`
	Margins         Margins    `json:"margins"`
	LineHeight      LineHeight `json:"lineHeight"`
	FirstLineIndent float64    `json:"firstLineIndent"`
	TabStop         float64    `json:"tabStop"`
	Direction       Direction  `json:"direction"`
}

// DefaultTabStop is the tab interval used when none is configured.
const DefaultTabStop = 36.0

// DefaultOptions returns options for a 72 DPI, unbounded, wrapping layout.
func DefaultOptions() Options {
	return Options{
		DPI:      ReferenceDPI,
		WordWrap: true,
		Paragraph: ParagraphProps{
			TabStop: DefaultTabStop,
		},
		BaseStyle: DefaultStyle(),
	}
}
