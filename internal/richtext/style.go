package richtext

import (
	"sort"
)

// Style identifies an inline formatting style.
type Style string

// Supported inline styles.
const (
	Bold          Style = "bold"
	Italic        Style = "italic"
	Strikethrough Style = "strikethrough"
	Code          Style = "code"
	Link          Style = "link"
)

// styleRank orders styles from outermost to innermost when nested in markup.
var styleRank = map[Style]int{
	Link:          0,
	Bold:          1,
	Italic:        2,
	Strikethrough: 3,
	Code:          4,
}

// Styles returns every supported style in nesting order.
func Styles() []Style {
	return []Style{Link, Bold, Italic, Strikethrough, Code}
}

// Valid reports whether s is a supported style.
func (s Style) Valid() bool {
	_, ok := styleRank[s]
	return ok
}

// StyleRange annotates a span of text with one style.
type StyleRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Style  Style  `json:"style"`
	Href   string `json:"href,omitempty"`
}

// End returns the exclusive end offset of the range.
func (r StyleRange) End() int {
	return r.Offset + r.Length
}

// sameKind reports whether two ranges may be merged.
func (r StyleRange) sameKind(o StyleRange) bool {
	return r.Style == o.Style && r.Href == o.Href
}

// Contains reports whether the range fully covers [offset, offset+length).
func (r StyleRange) Contains(offset, length int) bool {
	return r.Offset <= offset && r.End() >= offset+length
}

// Overlaps reports whether the range shares at least one character with
// [offset, offset+length).
func (r StyleRange) Overlaps(offset, length int) bool {
	return r.Offset < offset+length && offset < r.End()
}

// Normalize clamps ranges to [0, textLen], drops empty ones, merges
// touching or overlapping ranges of the same style and href, and sorts the
// result by offset then nesting rank. It never modifies its input.
func Normalize(ranges []StyleRange, textLen int) []StyleRange {
	work := make([]StyleRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.Style.Valid() {
			continue
		}
		start, end := r.Offset, r.End()
		if start < 0 {
			start = 0
		}
		if end > textLen {
			end = textLen
		}
		if end <= start {
			continue
		}
		r.Offset, r.Length = start, end-start
		work = append(work, r)
	}
	if len(work) == 0 {
		return nil
	}

	sort.SliceStable(work, func(i, j int) bool {
		a, b := work[i], work[j]
		if a.Style != b.Style {
			return styleRank[a.Style] < styleRank[b.Style]
		}
		if a.Href != b.Href {
			return a.Href < b.Href
		}
		return a.Offset < b.Offset
	})

	merged := make([]StyleRange, 0, len(work))
	for _, r := range work {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.sameKind(r) && r.Offset <= last.End() {
				if r.End() > last.End() {
					last.Length = r.End() - last.Offset
				}
				continue
			}
		}
		merged = append(merged, r)
	}

	sortRanges(merged)
	return merged
}

// sortRanges orders ranges by offset, then nesting rank, then href.
func sortRanges(ranges []StyleRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		a, b := ranges[i], ranges[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.Style != b.Style {
			return styleRank[a.Style] < styleRank[b.Style]
		}
		return a.Href < b.Href
	})
}

// clampSpan restricts [offset, offset+length) to [0, n].
func clampSpan(offset, length, n int) (int, int) {
	if offset < 0 {
		length += offset
		offset = 0
	}
	if offset > n {
		offset = n
	}
	if offset+length > n {
		length = n - offset
	}
	if length < 0 {
		length = 0
	}
	return offset, length
}

// Apply adds style over [offset, offset+length) and runs the merge pass.
// Plain content is promoted to rich content. A link replaces any link that
// already covers part of the span. The boolean is false when the clamped
// span is empty or the style is unknown; c is then returned unchanged.
func Apply(c Content, offset, length int, style Style, href string) (Content, bool) {
	if !style.Valid() {
		return c, false
	}
	n := c.Len()
	offset, length = clampSpan(offset, length, n)
	if length == 0 {
		return c, false
	}

	if style == Link {
		c = Remove(c, offset, length, Link)
	}

	out := c.Clone()
	out.Rich = true
	out.Styles = append(out.Styles, StyleRange{Offset: offset, Length: length, Style: style, Href: href})
	out.Styles = Normalize(out.Styles, n)
	return out, true
}

// Remove clears style from [offset, offset+length), splitting ranges that
// extend past the cleared span.
func Remove(c Content, offset, length int, style Style) Content {
	offset, length = clampSpan(offset, length, c.Len())
	out := c.Clone()
	if length == 0 {
		return out
	}
	end := offset + length

	kept := make([]StyleRange, 0, len(out.Styles)+1)
	for _, r := range out.Styles {
		if r.Style != style || !r.Overlaps(offset, length) {
			kept = append(kept, r)
			continue
		}
		if r.Offset < offset {
			left := r
			left.Length = offset - r.Offset
			kept = append(kept, left)
		}
		if r.End() > end {
			right := r
			right.Offset = end
			right.Length = r.End() - end
			kept = append(kept, right)
		}
	}
	out.Styles = Normalize(kept, out.Len())
	return out
}

// Covered reports whether style covers every character of
// [offset, offset+length).
func Covered(c Content, offset, length int, style Style) bool {
	offset, length = clampSpan(offset, length, c.Len())
	if length == 0 {
		return false
	}
	for _, r := range Normalize(c.Styles, c.Len()) {
		if r.Style == style && r.Contains(offset, length) {
			return true
		}
	}
	return false
}

// Toggle removes style when it already covers the whole span and applies it
// otherwise.
func Toggle(c Content, offset, length int, style Style, href string) (Content, bool) {
	if Covered(c, offset, length, style) {
		return Remove(c, offset, length, style), true
	}
	return Apply(c, offset, length, style, href)
}

// ActiveStyles returns the styles in effect for a selection. A collapsed
// selection reports the styles of the character before the caret.
func ActiveStyles(c Content, start, end int) []Style {
	if end < start {
		start, end = end, start
	}
	if start == end {
		if start == 0 {
			end = 1
		} else {
			start--
		}
	}
	var active []Style
	for _, s := range Styles() {
		if Covered(c, start, end-start, s) {
			active = append(active, s)
		}
	}
	return active
}
