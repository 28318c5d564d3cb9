package layout

import (
	"encoding/json"
	"os"
)

// DebugRun 是 Run 的可序列化快照。
type DebugRun struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Text        string   `json:"text"`
	Dir         string   `json:"dir"`
	Tab         bool     `json:"tab,omitempty"`
	Font        FontSpec `json:"font"`
	X0          float64  `json:"x0"`
	X1          float64  `json:"x1"`
	Width       float64  `json:"width"`
	KernedWidth float64  `json:"kernedWidth"`
	Ascent      float64  `json:"ascent"`
	Descent     float64  `json:"descent"`
}

type DebugLine struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Origin     Point      `json:"origin"`
	Ascent     float64    `json:"ascent"`
	Descent    float64    `json:"descent"`
	LineHeight float64    `json:"lineHeight"`
	Overflow   bool       `json:"overflow,omitempty"`
	Runs       []DebugRun `json:"runs"`
}

type DebugParagraph struct {
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Dir      string      `json:"dir"`
	Align    string      `json:"align"`
	Origin   Point       `json:"origin"`
	Height   float64     `json:"height"`
	MaxWidth float64     `json:"maxWidth"`
	Lines    []DebugLine `json:"lines"`
}

// DebugTree is the full geometry of a layout pass.
type DebugTree struct {
	Width       float64          `json:"width"`
	Height      float64          `json:"height"`
	VOffset     float64          `json:"vOffset"`
	Typographic Rect             `json:"typographic"`
	Paragraphs  []DebugParagraph `json:"paragraphs"`
}

// Snapshot captures the current geometry; it is empty for an invalid layout.
func (pl *ParagraphLayout) Snapshot() DebugTree {
	tree := DebugTree{Width: pl.boxW, Height: pl.boxH, VOffset: pl.vOffset, Typographic: pl.typo}
	if !pl.valid {
		return DebugTree{}
	}
	for _, p := range pl.Paragraphs {
		dp := DebugParagraph{
			Start: p.Start, End: p.End,
			Dir: p.Dir.String(), Align: p.Align.String(),
			Origin: p.Origin, Height: p.Height, MaxWidth: p.MaxWidth,
		}
		for _, ln := range p.Lines {
			dl := DebugLine{
				Start: ln.Start, End: ln.End, Origin: ln.Origin,
				Ascent: ln.Ascent, Descent: ln.Descent, LineHeight: ln.LineHeight,
				Overflow: ln.Overflow,
			}
			for _, r := range ln.Runs {
				var spec FontSpec
				if r.font != nil {
					spec = r.font.Spec()
				}
				dl.Runs = append(dl.Runs, DebugRun{
					Start: r.Start, End: r.End, Text: string(pl.text[r.Start:r.End]),
					Dir: r.Dir.String(), Tab: r.IsTab, Font: spec,
					X0: r.X0, X1: r.X1, Width: r.Width, KernedWidth: r.KernedWidth,
					Ascent: r.Ascent, Descent: r.Descent,
				})
			}
			dp.Lines = append(dp.Lines, dl)
		}
		tree.Paragraphs = append(tree.Paragraphs, dp)
	}
	return tree
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(pl *ParagraphLayout, path string) error {
	if pl == nil {
		return nil
	}
	data, err := json.MarshalIndent(pl.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
