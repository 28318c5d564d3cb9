package layout

import "math"

// Draw paints the layout with its box at origin: run backgrounds, then the
// text of every non-empty run, then underline and strikeout bars.
func (pl *ParagraphLayout) Draw(gc GraphicsContext, origin Point) {
	if !expect(pl.valid, "draw on an invalid layout") {
		return
	}
	t := pl.contentTransform(origin)
	painter, native := gc.(BackgroundPainter)
	native = native && painter.PaintsBackgrounds()

	var cur Color
	colorSet := false
	for _, p := range pl.Paragraphs {
		for _, ln := range p.Lines {
			base := p.Origin.Add(ln.Origin)
			for _, r := range ln.Runs {
				if r.Len() == 0 {
					continue
				}
				st := r.style
				if st.Has(AttrBackground) && st.Background.A > 0 {
					box := t.ApplyRect(r.HitBounds.Translate(base))
					if native {
						painter.FillRunBackground(box, st.Background)
					} else {
						gc.FillRect(box, st.Background)
					}
				}
				s := r.visualText(pl.text)
				if s == "" {
					continue
				}
				if !colorSet || cur != st.Color {
					gc.SetTextColor(st.Color)
					cur, colorSet = st.Color, true
				}
				gc.SetFont(r.font)
				gc.DrawText(t.Apply(base.Add(Point{X: r.X0})), s)
				pl.drawDecorations(gc, t, base, r)
			}
		}
	}
}

func (pl *ParagraphLayout) drawDecorations(gc GraphicsContext, t Affine, base Point, r *Run) {
	st := r.style
	if !st.Underline && !st.Strikeout {
		return
	}
	th := math.Max(pl.round.Round((r.Ascent+r.Descent)/16), 1.0/TwipsPerPoint)
	x0, x1 := r.TypoBounds.Min.X, r.TypoBounds.Max.X
	if st.Underline {
		y := pl.round.Round(r.Descent / 2)
		gc.FillRect(t.ApplyRect(R(x0, y, x1, y+th).Translate(base)), st.Color)
	}
	if st.Strikeout {
		y := -pl.round.Round(r.Ascent / 3)
		gc.FillRect(t.ApplyRect(R(x0, y, x1, y+th).Translate(base)), st.Color)
	}
}
