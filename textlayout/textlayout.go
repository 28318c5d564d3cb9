// Package textlayout is the session facade over the paragraph layout
// engine. It owns the text buffer, the style trees and the layout options,
// tracks how dirty the cached geometry is and dispatches the cheapest engine
// update that brings it back in sync before every query or draw.
//
// A TextLayout serialises all calls with a single mutex. It is meant for one
// logical owner at a time; the lock only keeps concurrent callers from
// corrupting it.
package textlayout

import (
	"fmt"
	"sync"

	"github.com/ByLCY/scribe/dsl"
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/segment"
)

// Options configure a TextLayout.
type Options struct {
	layout.Options
	// Breaker and Resolver replace the Unicode oracles of package segment.
	Breaker  layout.WordBreaker
	Resolver layout.DirectionResolver
}

// DefaultOptions returns the engine defaults with the Unicode oracles.
func DefaultOptions() Options {
	return Options{Options: layout.DefaultOptions()}
}

// TextLayout is a text buffer with styles laid out by a ParagraphLayout.
type TextLayout struct {
	mu sync.Mutex

	engine *layout.ParagraphLayout
	device layout.Device

	// tree and extra are shared with the engine; their roots are swapped in
	// place so the engine never needs to be told about a new tree.
	tree  *layout.StyleTree
	extra *layout.StyleTree
	opts  Options
	meta  []dsl.Property

	realEmpty bool
	state     State
	// restyle is a pending color refresh. A bounds pass reuses the flattened
	// styles, so it is kept apart from state and run before UpdateBounds.
	restyle bool
}

// New returns an empty layout measuring with dev. dev may be nil and set
// later with SetDevice.
func New(fonts layout.FontService, dev layout.Device, opts Options) *TextLayout {
	t := &TextLayout{
		engine:    layout.New(fonts, opts.Options),
		device:    dev,
		tree:      layout.NewStyleTree(1),
		extra:     layout.NewStyleTree(1),
		opts:      opts,
		realEmpty: true,
		state:     NeedsFullRelayout,
	}
	t.engine.SetStyles(t.tree, t.extra)
	t.engine.SetText([]rune{layout.Placeholder})
	t.installOracles()
	return t
}

func (t *TextLayout) installOracles() {
	var b layout.WordBreaker = segment.NewBreaker()
	if t.opts.Breaker != nil {
		b = t.opts.Breaker
	}
	var r layout.DirectionResolver = segment.NewResolver()
	if t.opts.Resolver != nil {
		r = t.opts.Resolver
	}
	t.engine.SetWordBreaker(b)
	t.engine.SetDirectionResolver(r)
}

// SetDevice replaces the metrics device.
func (t *TextLayout) SetDevice(dev layout.Device) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.device = dev
	t.markLocked(NeedsFullRelayout)
}

// State returns the current dirty level.
func (t *TextLayout) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *TextLayout) markLocked(s State) {
	if s == StyleDirty {
		t.restyle = true
	}
	t.state.mark(s)
}

// MarkDirty raises the dirty level. Callers that mutate StyleTree directly
// must call it.
func (t *TextLayout) MarkDirty(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markLocked(s)
}

// Text returns the logical text; the internal placeholder is never visible.
func (t *TextLayout) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.textLocked()
}

func (t *TextLayout) textLocked() string {
	if t.realEmpty {
		return ""
	}
	return string(t.engine.Text())
}

// Len returns the logical text length in runes.
func (t *TextLayout) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lenLocked()
}

func (t *TextLayout) lenLocked() int {
	if t.realEmpty {
		return 0
	}
	return len(t.engine.Text())
}

// SetText replaces the whole text. Existing styles are clipped or extended
// to the new length.
func (t *TextLayout) SetText(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setTextLocked([]rune(s))
}

func (t *TextLayout) setTextLocked(rs []rune) {
	t.realEmpty = len(rs) == 0
	if t.realEmpty {
		rs = []rune{layout.Placeholder}
	}
	t.engine.SetText(rs)
	t.extra.Resize(len(rs))
	t.markLocked(NeedsFullRelayout)
}

// Insert inserts s before rune index pos.
func (t *TextLayout) Insert(pos int, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceLocked(pos, pos, []rune(s))
}

// Delete removes [start, end).
func (t *TextLayout) Delete(start, end int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceLocked(start, end, nil)
}

// Replace replaces [start, end) with s.
func (t *TextLayout) Replace(start, end int, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceLocked(start, end, []rune(s))
}

func (t *TextLayout) replaceLocked(start, end int, rs []rune) {
	start, end = clampRange(start, end, t.lenLocked())
	if start == end && len(rs) == 0 {
		return
	}
	if t.realEmpty {
		// the placeholder is swapped out, never edited
		start, end = 0, 1
	}
	t.engine.ReplaceText(start, end, rs)
	t.extra.DeleteText(start, end)
	t.extra.InsertText(start, len(rs))
	t.realEmpty = false
	if n := len(t.engine.Text()); n == 0 {
		t.realEmpty = true
		t.engine.SetText([]rune{layout.Placeholder})
		t.extra.Resize(1)
	} else {
		t.extra.Resize(n)
	}
	t.markLocked(NeedsFullRelayout)
}

// ApplyStyle adds s over [start, end). Color-only styles leave the geometry
// untouched and are refreshed in place.
func (t *TextLayout) ApplyStyle(start, end int, s layout.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applyStyleLocked(start, end, s)
}

func (t *TextLayout) applyStyleLocked(start, end int, s layout.Style) {
	start, end = clampRange(start, end, t.lenLocked())
	if start >= end || s.Set == 0 {
		return
	}
	t.tree.Apply(start, end, s)
	if colorOnly(s) {
		t.markLocked(StyleDirty)
	} else {
		t.markLocked(NeedsFullRelayout)
	}
}

// ClearStyles drops every style node.
func (t *TextLayout) ClearStyles() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tree.Root = &layout.StyleNode{End: len(t.engine.Text())}
	t.markLocked(NeedsFullRelayout)
}

// StyleTree returns the style tree shared with the engine. After mutating
// it directly call MarkDirty.
func (t *TextLayout) StyleTree() *layout.StyleTree {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree
}

// SetExtraStyles replaces the overlay layered above the style tree, e.g. a
// selection highlight. nil clears it. The tree is copied.
func (t *TextLayout) SetExtraStyles(extra *layout.StyleTree) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.engine.Text())
	wasColor := treeColorOnly(t.extra)
	if extra == nil || extra.Root == nil {
		t.extra.Root = &layout.StyleNode{End: n}
	} else {
		t.extra.Root = extra.Clone().Root
		t.extra.Resize(n)
	}
	if wasColor && treeColorOnly(t.extra) {
		t.markLocked(StyleDirty)
	} else {
		t.markLocked(NeedsFullRelayout)
	}
}

// Options returns the current options.
func (t *TextLayout) Options() Options {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts
}

// SetOptions replaces the options. Box size, vertical alignment and
// transform changes only need new bounds; anything else is a full relayout.
func (t *TextLayout) SetOptions(o Options) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setOptionsLocked(o)
}

func (t *TextLayout) setOptionsLocked(o Options) {
	prev := t.opts
	t.opts = o
	t.engine.SetOptions(o.Options)
	if prev.Breaker != o.Breaker || prev.Resolver != o.Resolver {
		t.installOracles()
		t.markLocked(NeedsFullRelayout)
		return
	}
	a := prev.Options
	a.MaxWidth, a.MaxHeight, a.VAlign, a.Transform = o.MaxWidth, o.MaxHeight, o.VAlign, o.Transform
	switch {
	case a != o.Options:
		t.markLocked(NeedsFullRelayout)
	case prev.Options != o.Options:
		t.markLocked(NeedsBounds)
	}
}

// Meta returns the document metadata carried through export and import.
func (t *TextLayout) Meta(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.meta) - 1; i >= 0; i-- {
		if t.meta[i].Key == key {
			return t.meta[i].Value, true
		}
	}
	return "", false
}

// SetMeta sets a metadata entry such as "title" or "author".
func (t *TextLayout) SetMeta(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setMetaLocked(dsl.Property{Key: key, Value: value, Quoted: true})
}

// Update brings the engine geometry in sync with the cheapest pass the
// dirty level allows.
func (t *TextLayout) Update() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateLocked()
}

func (t *TextLayout) updateLocked() error {
	if t.state == Clean && t.engine.Valid() {
		return nil
	}
	if t.device == nil {
		return layout.ErrNoDevice
	}
	state := t.state
	var err error
	switch state {
	case StyleDirty:
		err = t.refreshStylesLocked()
	case NeedsBounds:
		if t.restyle {
			err = t.refreshStylesLocked()
		}
		if err == nil {
			err = t.engine.UpdateBounds(t.device)
		}
	default:
		err = t.engine.UpdateLayout(t.device)
	}
	if err != nil {
		return fmt.Errorf("update layout (%s): %w", state, err)
	}
	layout.Logger().Debug("textlayout: updated", "state", state.String(), "paragraphs", len(t.engine.Paragraphs))
	t.state = Clean
	t.restyle = false
	return nil
}

func (t *TextLayout) refreshStylesLocked() error {
	fast, err := t.engine.RefreshStyles(t.device)
	layout.Logger().Debug("textlayout: refreshed styles", "fast", fast)
	return err
}

// Close releases the fonts held by the engine.
func (t *TextLayout) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.engine.Close()
	t.markLocked(NeedsFullRelayout)
}

func colorOnly(s layout.Style) bool { return s.Set&^layout.AttrColors == 0 }

func treeColorOnly(tr *layout.StyleTree) bool {
	if tr == nil || tr.Root == nil {
		return true
	}
	ok := true
	var walk func(nd *layout.StyleNode)
	walk = func(nd *layout.StyleNode) {
		if !colorOnly(nd.Style) {
			ok = false
			return
		}
		for _, c := range nd.Children {
			walk(c)
		}
	}
	walk(tr.Root)
	return ok
}

func clampRange(start, end, n int) (int, int) {
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return start, end
}
