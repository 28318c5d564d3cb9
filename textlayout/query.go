package textlayout

import (
	"fmt"

	"github.com/ByLCY/scribe/layout"
)

// ensure updates the layout for a query. Failures are logged and the query
// degrades to its zero result.
func (t *TextLayout) ensure() bool {
	if err := t.updateLocked(); err != nil {
		layout.Logger().Warn("textlayout: query on unavailable layout", "err", err)
		return false
	}
	return true
}

func (t *TextLayout) clampIndex(i int) int {
	return max(0, min(i, t.lenLocked()))
}

// LayoutBounds returns the layout box anchored at origin.
func (t *TextLayout) LayoutBounds(origin layout.Point) (layout.Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ensure() {
		return layout.Rect{}, false
	}
	return t.engine.LayoutBounds(origin), true
}

// TypographicBounds returns the inked text extent anchored at origin.
func (t *TextLayout) TypographicBounds(origin layout.Point) (layout.Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ensure() {
		return layout.Rect{}, false
	}
	return t.engine.TypographicBounds(origin), true
}

// CaretMetrics returns the caret before rune index i.
func (t *TextLayout) CaretMetrics(origin layout.Point, i int, lineMode bool) (layout.Caret, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ensure() {
		return layout.Caret{}, false
	}
	return t.engine.CaretMetrics(origin, t.clampIndex(i), lineMode)
}

// CharIndexFromPos returns the insertion index nearest to pt.
func (t *TextLayout) CharIndexFromPos(origin, pt layout.Point) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ensure() {
		return 0, false
	}
	i, ok := t.engine.CharIndexFromPos(origin, pt)
	return t.clampIndex(i), ok
}

// RunBoundsFromRange returns one rectangle per run fragment of [start, end).
func (t *TextLayout) RunBoundsFromRange(origin layout.Point, start, end int) []layout.Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, end = clampRange(start, end, t.lenLocked())
	if start >= end || !t.ensure() {
		return nil
	}
	return t.engine.RunBoundsFromRange(origin, start, end)
}

// MoveCharIndexUp returns the index on the visual line above i.
func (t *TextLayout) MoveCharIndexUp(origin layout.Point, i int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ensure() {
		return t.clampIndex(i), false
	}
	j, ok := t.engine.MoveCharIndexUp(origin, t.clampIndex(i))
	return t.clampIndex(j), ok
}

// MoveCharIndexDown returns the index on the visual line below i.
func (t *TextLayout) MoveCharIndexDown(origin layout.Point, i int) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ensure() {
		return t.clampIndex(i), false
	}
	j, ok := t.engine.MoveCharIndexDown(origin, t.clampIndex(i))
	return t.clampIndex(j), ok
}

// Draw paints the text into gc with the layout box anchored at origin.
func (t *TextLayout) Draw(gc layout.GraphicsContext, origin layout.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.updateLocked(); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	t.engine.Draw(gc, origin)
	return nil
}

// Snapshot returns the debug tree of the current layout.
func (t *TextLayout) Snapshot() (layout.DebugTree, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.updateLocked(); err != nil {
		return layout.DebugTree{}, err
	}
	return t.engine.Snapshot(), nil
}

// WriteDebugJSON dumps the paragraph/line/run tree to path.
func (t *TextLayout) WriteDebugJSON(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.updateLocked(); err != nil {
		return err
	}
	return layout.WriteDebugJSON(t.engine, path)
}
