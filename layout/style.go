package layout

import "sort"

// Attr flags which attributes of a Style are set. Unset attributes inherit.
type Attr uint16

const (
	AttrFontName Attr = 1 << iota
	AttrFontSize
	AttrBold
	AttrItalic
	AttrUnderline
	AttrStrikeout
	AttrColor
	AttrBackground
	AttrJustify
	AttrSpanRef

	// AttrColors are the attributes that never change geometry.
	AttrColors = AttrColor | AttrBackground
)

// SpanRef marks an opaque inline object, such as an evaluated expression.
// Its Style is merged onto the carrier style when styles are flattened.
type SpanRef struct {
	Expr  string `json:"expr"`
	Value string `json:"value"`
	Style Style  `json:"style"`
}

// Style is a set of character attributes.
type Style struct {
	Set        Attr     `json:"set"`
	FontName   string   `json:"fontName,omitempty"`
	FontSize   float64  `json:"fontSize,omitempty"`
	Bold       bool     `json:"bold,omitempty"`
	Italic     bool     `json:"italic,omitempty"`
	Underline  bool     `json:"underline,omitempty"`
	Strikeout  bool     `json:"strikeout,omitempty"`
	Color      Color    `json:"color"`
	Background Color    `json:"background"`
	Justify    HAlign   `json:"justify,omitempty"`
	Ref        *SpanRef `json:"ref,omitempty"`
}

// DefaultStyle is the base style every flattened segment starts from.
func DefaultStyle() Style {
	return Style{
		Set:      AttrFontName | AttrFontSize | AttrColor,
		FontName: "Go",
		FontSize: 12,
		Color:    Black,
	}
}

// Has reports whether all attributes in a are set.
func (s Style) Has(a Attr) bool { return s.Set&a == a }

// Merge returns s overridden by the attributes set in o.
func (s Style) Merge(o Style) Style {
	if o.Has(AttrFontName) {
		s.FontName = o.FontName
	}
	if o.Has(AttrFontSize) {
		s.FontSize = o.FontSize
	}
	if o.Has(AttrBold) {
		s.Bold = o.Bold
	}
	if o.Has(AttrItalic) {
		s.Italic = o.Italic
	}
	if o.Has(AttrUnderline) {
		s.Underline = o.Underline
	}
	if o.Has(AttrStrikeout) {
		s.Strikeout = o.Strikeout
	}
	if o.Has(AttrColor) {
		s.Color = o.Color
	}
	if o.Has(AttrBackground) {
		s.Background = o.Background
	}
	if o.Has(AttrJustify) {
		s.Justify = o.Justify
	}
	if o.Has(AttrSpanRef) {
		s.Ref = o.Ref
	}
	s.Set |= o.Set
	return s
}

// FontSpec returns the font request described by s.
func (s Style) FontSpec() FontSpec {
	return FontSpec{Family: s.FontName, Size: s.FontSize, Bold: s.Bold, Italic: s.Italic}
}

// equal compares the effective attributes, not which of them were set. An
// explicit justify overrides the paragraph alignment, so its presence counts.
// Ref is compared by identity.
func (s Style) equal(o Style) bool {
	return s.Has(AttrJustify) == o.Has(AttrJustify) && s.FontName == o.FontName && s.FontSize == o.FontSize &&
		s.Bold == o.Bold && s.Italic == o.Italic && s.Underline == o.Underline &&
		s.Strikeout == o.Strikeout && s.Color == o.Color && s.Background == o.Background &&
		s.Justify == o.Justify && s.Ref == o.Ref
}

// StyleNode is one (range, style) node. Children override their parent and
// later siblings override earlier ones.
type StyleNode struct {
	Start    int          `json:"start"`
	End      int          `json:"end"`
	Style    Style        `json:"style"`
	Children []*StyleNode `json:"children,omitempty"`
}

// StyleTree covers [0, length) with its root node.
type StyleTree struct {
	Root *StyleNode `json:"root"`
}

// NewStyleTree returns a tree whose root covers [0, length) with no attributes.
func NewStyleTree(length int) *StyleTree {
	return &StyleTree{Root: &StyleNode{Start: 0, End: length}}
}

// Len returns the covered text length.
func (t *StyleTree) Len() int {
	if t == nil || t.Root == nil {
		return 0
	}
	return t.Root.End
}

// Apply adds a style over [start, end). The node is attached under the
// deepest node that fully contains the range.
func (t *StyleTree) Apply(start, end int, s Style) {
	if t == nil || t.Root == nil {
		return
	}
	start, end = clampRange(start, end, t.Root.End)
	if start >= end {
		return
	}
	if start == t.Root.Start && end == t.Root.End && len(t.Root.Children) == 0 {
		t.Root.Style = t.Root.Style.Merge(s)
		return
	}
	parent := t.Root
	for {
		var next *StyleNode
		for i := len(parent.Children) - 1; i >= 0; i-- {
			c := parent.Children[i]
			if c.Start <= start && end <= c.End {
				next = c
				break
			}
		}
		// stop descending if a later sibling overlaps the range, it must keep precedence
		if next == nil || laterOverlap(parent, next, start, end) {
			break
		}
		parent = next
	}
	parent.Children = append(parent.Children, &StyleNode{Start: start, End: end, Style: s})
}

func laterOverlap(parent, child *StyleNode, start, end int) bool {
	seen := false
	for _, c := range parent.Children {
		if c == child {
			seen = true
			continue
		}
		if seen && c.Start < end && start < c.End {
			return true
		}
	}
	return false
}

// InsertText shifts the tree for n runes inserted at pos. Ranges containing
// pos (including ranges ending at pos) grow.
func (t *StyleTree) InsertText(pos, n int) {
	if t == nil || t.Root == nil || n <= 0 {
		return
	}
	var walk func(nd *StyleNode)
	walk = func(nd *StyleNode) {
		switch {
		case nd.Start >= pos && nd.Start > 0:
			nd.Start += n
			nd.End += n
		case nd.End >= pos:
			nd.End += n
		}
		for _, c := range nd.Children {
			walk(c)
		}
	}
	walk(t.Root)
	t.Root.Start = 0
}

// DeleteText removes [start, end) from the tree, clipping ranges and dropping
// nodes that become empty.
func (t *StyleTree) DeleteText(start, end int) {
	if t == nil || t.Root == nil {
		return
	}
	start, end = clampRange(start, end, t.Root.End)
	if start >= end {
		return
	}
	n := end - start
	remap := func(x int) int {
		switch {
		case x <= start:
			return x
		case x <= end:
			return start
		default:
			return x - n
		}
	}
	var walk func(nd *StyleNode)
	walk = func(nd *StyleNode) {
		nd.Start, nd.End = remap(nd.Start), remap(nd.End)
		kept := nd.Children[:0]
		for _, c := range nd.Children {
			walk(c)
			if c.Start < c.End {
				kept = append(kept, c)
			}
		}
		nd.Children = kept
	}
	walk(t.Root)
}

// Resize forces the root to cover [0, length), clipping descendants.
func (t *StyleTree) Resize(length int) {
	if t == nil || t.Root == nil {
		return
	}
	if length < t.Root.End {
		t.DeleteText(length, t.Root.End)
	}
	t.Root.Start, t.Root.End = 0, length
}

// Clone returns a deep copy of the tree.
func (t *StyleTree) Clone() *StyleTree {
	if t == nil || t.Root == nil {
		return nil
	}
	var cp func(nd *StyleNode) *StyleNode
	cp = func(nd *StyleNode) *StyleNode {
		out := &StyleNode{Start: nd.Start, End: nd.End, Style: nd.Style}
		for _, c := range nd.Children {
			out.Children = append(out.Children, cp(c))
		}
		return out
	}
	return &StyleTree{Root: cp(t.Root)}
}

// StyleSegment is one element of a flattened, non-overlapping style list.
type StyleSegment struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Style Style `json:"style"`
}

// Flatten computes the sequential uniform styles covering [start, end) from
// the base style, the style tree and the extra overlay, without touching the
// inputs. Span references are merged onto their carrier style and dropped.
func Flatten(base Style, tree, extra *StyleTree, start, end int) []StyleSegment {
	if end < start {
		end = start
	}
	bounds := []int{start, end}
	collect := func(t *StyleTree) {
		if t == nil || t.Root == nil {
			return
		}
		var walk func(nd *StyleNode)
		walk = func(nd *StyleNode) {
			if nd.Start > start && nd.Start < end {
				bounds = append(bounds, nd.Start)
			}
			if nd.End > start && nd.End < end {
				bounds = append(bounds, nd.End)
			}
			for _, c := range nd.Children {
				walk(c)
			}
		}
		walk(t.Root)
	}
	collect(tree)
	collect(extra)
	sort.Ints(bounds)

	var out []StyleSegment
	add := func(s, e int, st Style) {
		if n := len(out); n > 0 && out[n-1].Style.equal(st) {
			out[n-1].End = e
			return
		}
		out = append(out, StyleSegment{Start: s, End: e, Style: st})
	}
	if start == end {
		add(start, end, styleAt(base, tree, extra, start))
		return out
	}
	for i := 0; i+1 < len(bounds); i++ {
		s, e := bounds[i], bounds[i+1]
		if s == e {
			continue
		}
		add(s, e, styleAt(base, tree, extra, s))
	}
	return out
}

// styleAt resolves the effective style of the character at pos.
func styleAt(base Style, tree, extra *StyleTree, pos int) Style {
	st := base
	apply := func(t *StyleTree) {
		if t == nil || t.Root == nil {
			return
		}
		var walk func(nd *StyleNode)
		walk = func(nd *StyleNode) {
			st = st.Merge(nd.Style)
			for _, c := range nd.Children {
				if c.Start <= pos && pos < c.End {
					walk(c)
				}
			}
		}
		walk(t.Root)
	}
	apply(tree)
	apply(extra)
	if st.Ref != nil {
		st = st.Merge(st.Ref.Style)
		st.Ref = nil
		st.Set &^= AttrSpanRef
	}
	return st
}

func clampRange(start, end, length int) (int, int) {
	start = max(0, min(start, length))
	end = max(start, min(end, length))
	return start, end
}
