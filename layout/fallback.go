package layout

import "unicode"

// SpaceBreaker is the built-in word oracle: a word is a run of non-space
// characters together with the whitespace that follows it, so lines may
// only break after whitespace. End-of-line characters always end a word.
type SpaceBreaker struct{}

func (SpaceBreaker) Words(text []rune) []Word {
	var words []Word
	start := 0
	inSpace := false
	for i, r := range text {
		if isEOL(r) {
			words = append(words, Word{Start: start, End: i + 1})
			start, inSpace = i+1, false
			continue
		}
		sp := unicode.IsSpace(r)
		if !sp && inSpace {
			// 空白之后出现新词：上一个词在此结束
			words = append(words, Word{Start: start, End: i})
			start = i
		}
		inSpace = sp
	}
	if start < len(text) {
		words = append(words, Word{Start: start, End: len(text)})
	}
	return words
}

// LTRResolver is the built-in direction oracle for left-to-right-only text.
type LTRResolver struct{}

func (LTRResolver) Directions(text []rune, base Direction) (Direction, []DirRun) {
	if base == DirAuto {
		base = DirLTR
	}
	return base, []DirRun{{Pos: 0, Dir: base}}
}
