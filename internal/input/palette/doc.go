// Package palette provides fuzzy search over editor commands, as used by
// command menus and "/" block pickers.
//
// Matching is subsequence based: every query rune must appear in order in
// the candidate text. Scores favor consecutive runs, word starts and
// prefixes, and entries run recently rank higher.
package palette
