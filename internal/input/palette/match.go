package palette

import (
	"strings"
	"unicode"
)

// score matches query against text and returns a score, zero for no
// match, and the rune indices of the matched characters.
func score(query []rune, text string) (int, []int) {
	if text == "" || len(query) == 0 {
		return 0, nil
	}
	original := []rune(text)
	lower := []rune(strings.ToLower(text))

	matches := make([]int, 0, len(query))
	q := 0
	for i := 0; i < len(lower) && q < len(query); i++ {
		if lower[i] == query[q] {
			matches = append(matches, i)
			q++
		}
	}
	if q != len(query) {
		return 0, nil
	}

	s := 100
	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			s += 20
		}
	}
	for _, idx := range matches {
		if wordStart(original, idx) {
			s += 15
		}
	}
	if matches[0] == 0 {
		s += 25
	}
	if gap := matches[len(matches)-1] - matches[0] - len(matches) + 1; gap > 0 {
		s -= gap * 2
	}
	s -= matches[0]
	if len(lower) < 20 {
		s += 20 - len(lower)
	}
	if strings.HasPrefix(string(lower), string(query)) {
		s += 50
	}
	return max(s, 1), matches
}

// wordStart reports whether the rune at idx begins a word, including a
// camelCase hump.
func wordStart(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev, cur := runes[idx-1], runes[idx]
	if unicode.IsSpace(prev) || unicode.IsPunct(prev) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(cur)
}
