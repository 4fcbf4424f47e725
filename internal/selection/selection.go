// Package selection maps the live surface selection to block coordinates.
//
// Selection is an abstract value measured in the plain-text projection of
// a block. The Adapter is the only code that reads or writes the live
// selection of a surface; everything else, including the word-boundary
// scanning and the delete-then-insert ordering of the Manager, works on
// Selection values and can be tested without a surface.
package selection

import "unicode"

// Selection is a caret or range in block coordinates. Offsets are code
// points. A range that spans blocks has FocusBlockID set.
type Selection struct {
	BlockID      string `json:"blockId"`
	AnchorOffset int    `json:"anchorOffset"`
	FocusOffset  int    `json:"focusOffset"`
	IsCollapsed  bool   `json:"isCollapsed"`
	FocusBlockID string `json:"focusBlockId,omitempty"`
}

// Caret returns a collapsed selection.
func Caret(blockID string, offset int) Selection {
	return Selection{BlockID: blockID, AnchorOffset: offset, FocusOffset: offset, IsCollapsed: true}
}

// Range returns a selection inside one block.
func Range(blockID string, anchor, focus int) Selection {
	return Selection{
		BlockID:      blockID,
		AnchorOffset: anchor,
		FocusOffset:  focus,
		IsCollapsed:  anchor == focus,
	}
}

// MultiBlock reports whether the selection spans more than one block.
func (s Selection) MultiBlock() bool {
	return s.FocusBlockID != "" && s.FocusBlockID != s.BlockID
}

// FocusBlock returns the block holding the focus point.
func (s Selection) FocusBlock() string {
	if s.FocusBlockID != "" {
		return s.FocusBlockID
	}
	return s.BlockID
}

// Start returns the smaller offset of a single-block selection.
func (s Selection) Start() int {
	return min(s.AnchorOffset, s.FocusOffset)
}

// End returns the larger offset of a single-block selection.
func (s Selection) End() int {
	return max(s.AnchorOffset, s.FocusOffset)
}

// Length returns the number of selected code points in a single block.
func (s Selection) Length() int {
	return s.End() - s.Start()
}

// NextWordBoundary returns the offset after the next word: whitespace is
// skipped, then the run of non-whitespace that follows.
func NextWordBoundary(text string, offset int) int {
	r := []rune(text)
	i := clamp(offset, 0, len(r))
	for i < len(r) && unicode.IsSpace(r[i]) {
		i++
	}
	for i < len(r) && !unicode.IsSpace(r[i]) {
		i++
	}
	return i
}

// PrevWordBoundary returns the offset at the start of the previous word.
func PrevWordBoundary(text string, offset int) int {
	r := []rune(text)
	i := clamp(offset, 0, len(r))
	for i > 0 && unicode.IsSpace(r[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(r[i-1]) {
		i--
	}
	return i
}

// lineColumn returns the line index and column of offset, counting lines
// separated by '\n'.
func lineColumn(text string, offset int) (line, col int) {
	for i, r := range []rune(text) {
		if i == offset {
			break
		}
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return line, col
}

// offsetAt returns the offset of (line, col), clamping col to the line.
func offsetAt(text string, line, col int) int {
	r := []rune(text)
	cur, start := 0, 0
	for i := 0; i <= len(r); i++ {
		if i == len(r) || r[i] == '\n' {
			if cur == line {
				return start + min(col, i-start)
			}
			cur++
			start = i + 1
		}
	}
	return len(r)
}

func lineCount(text string) int {
	n := 1
	for _, r := range text {
		if r == '\n' {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
