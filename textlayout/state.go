package textlayout

// State is the facade's dirty level. Marking keeps the maximum; a color
// refresh marked below NeedsBounds stays pending until the bounds pass.
type State uint8

const (
	// Clean means the engine geometry matches the inputs.
	Clean State = iota
	// StyleDirty means only colors changed; runs are refreshed in place.
	StyleDirty
	// NeedsBounds means the box changed; stacking and alignment are redone.
	NeedsBounds
	// NeedsFullRelayout means text, fonts or paragraph properties changed.
	NeedsFullRelayout
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case StyleDirty:
		return "style-dirty"
	case NeedsBounds:
		return "needs-bounds"
	default:
		return "needs-full-relayout"
	}
}

func (s *State) mark(o State) {
	if o > *s {
		*s = o
	}
}
