// Package richtext models inline formatting as flat text plus style ranges.
//
// A Content value holds plain text and a sorted list of StyleRange
// annotations. Offsets and lengths count Unicode code points of the text.
// After every mutation ranges of the same style are merged when they touch
// or overlap, so a style never covers a character twice; ranges of different
// styles may overlap freely.
//
// # Markup
//
// Render converts Content to inline HTML using strong, em, s, code and a
// elements. Parse goes the other way and never fails: unknown elements are
// flattened to their text.
//
//	c, _ := richtext.Apply(richtext.Plain("hello world"), 0, 5, richtext.Bold, "")
//	richtext.Render(c) // <strong>hello</strong> world
package richtext
