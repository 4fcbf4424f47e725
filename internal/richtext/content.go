package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Content is the content of a text block: plain text plus style ranges.
//
// Rich distinguishes a plain string from RichText. Plain content serializes
// as a JSON string, rich content as {"text": ..., "styles": [...]}.
type Content struct {
	Text   string
	Styles []StyleRange
	Rich   bool
}

// Plain returns unstyled content.
func Plain(text string) Content {
	return Content{Text: text}
}

// Rich returns rich content with the given ranges normalized.
func Rich(text string, styles ...StyleRange) Content {
	return Content{
		Text:   text,
		Styles: Normalize(styles, utf8.RuneCountInString(text)),
		Rich:   true,
	}
}

// Len returns the length of the text in code points.
func (c Content) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// IsEmpty reports whether the content has no text.
func (c Content) IsEmpty() bool {
	return c.Text == ""
}

// Clone returns a copy that shares no memory with c.
func (c Content) Clone() Content {
	out := Content{Text: c.Text, Rich: c.Rich}
	if c.Styles != nil {
		out.Styles = make([]StyleRange, len(c.Styles))
		copy(out.Styles, c.Styles)
	}
	return out
}

// Slice returns the content of [from, to) with ranges clipped and shifted.
func Slice(c Content, from, to int) Content {
	runes := []rune(c.Text)
	n := len(runes)
	if from < 0 {
		from = 0
	}
	if from > n {
		from = n
	}
	if to > n {
		to = n
	}
	if to < from {
		to = from
	}

	out := Content{Text: string(runes[from:to]), Rich: c.Rich}
	var ranges []StyleRange
	for _, r := range c.Styles {
		start, end := max(r.Offset, from), min(r.End(), to)
		if end <= start {
			continue
		}
		r.Offset = start - from
		r.Length = end - start
		ranges = append(ranges, r)
	}
	out.Styles = Normalize(ranges, to-from)
	return out
}

// Concat joins two contents. Ranges of the same style meeting at the seam
// are merged.
func Concat(a, b Content) Content {
	shift := a.Len()
	ranges := make([]StyleRange, 0, len(a.Styles)+len(b.Styles))
	ranges = append(ranges, a.Styles...)
	for _, r := range b.Styles {
		r.Offset += shift
		ranges = append(ranges, r)
	}
	text := a.Text + b.Text
	return Content{
		Text:   text,
		Styles: Normalize(ranges, utf8.RuneCountInString(text)),
		Rich:   a.Rich || b.Rich,
	}
}

// InsertText inserts s at offset. Ranges starting at or after offset move
// right; ranges strictly containing offset grow.
func InsertText(c Content, offset int, s string) Content {
	runes := []rune(c.Text)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	s = SanitizeText(s)
	k := utf8.RuneCountInString(s)

	out := Content{
		Text: string(runes[:offset]) + s + string(runes[offset:]),
		Rich: c.Rich,
	}
	ranges := make([]StyleRange, 0, len(c.Styles))
	for _, r := range c.Styles {
		switch {
		case r.Offset >= offset:
			r.Offset += k
		case r.End() > offset:
			r.Length += k
		}
		ranges = append(ranges, r)
	}
	out.Styles = Normalize(ranges, len(runes)+k)
	return out
}

// DeleteText removes [from, to) and closes the gap in the style ranges.
func DeleteText(c Content, from, to int) Content {
	out := Concat(Slice(c, 0, from), Slice(c, to, c.Len()))
	out.Rich = c.Rich
	return out
}

type richJSON struct {
	Text   string       `json:"text"`
	Styles []StyleRange `json:"styles"`
}

// MarshalJSON encodes plain content as a string and rich content as an
// object.
func (c Content) MarshalJSON() ([]byte, error) {
	if !c.Rich && len(c.Styles) == 0 {
		return json.Marshal(c.Text)
	}
	styles := c.Styles
	if styles == nil {
		styles = []StyleRange{}
	}
	return json.Marshal(richJSON{Text: c.Text, Styles: styles})
}

// UnmarshalJSON accepts either a JSON string or a rich text object.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Content{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Plain(SanitizeText(s))
		return nil
	}
	var r richJSON
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decoding rich text: %w", err)
	}
	*c = Sanitize(Content{
		Text:   r.Text,
		Styles: Normalize(r.Styles, utf8.RuneCountInString(r.Text)),
		Rich:   true,
	})
	return nil
}

// Sanitize removes control characters other than newline and tab, which
// markup cannot carry. Style ranges shrink over the removed characters.
func Sanitize(c Content) Content {
	if strings.IndexFunc(c.Text, stripped) < 0 {
		return c
	}
	runes := []rune(c.Text)
	// kept[i] is the number of runes kept before rune i.
	kept := make([]int, len(runes)+1)
	var sb strings.Builder
	for i, r := range runes {
		kept[i+1] = kept[i]
		if !stripped(r) {
			sb.WriteRune(r)
			kept[i+1]++
		}
	}
	at := func(offset int) int {
		return kept[min(max(offset, 0), len(runes))]
	}

	ranges := make([]StyleRange, 0, len(c.Styles))
	for _, r := range c.Styles {
		start, end := at(r.Offset), at(r.End())
		r.Offset, r.Length = start, end-start
		ranges = append(ranges, r)
	}
	return Content{
		Text:   sb.String(),
		Styles: Normalize(ranges, kept[len(runes)]),
		Rich:   c.Rich,
	}
}

// SanitizeText removes the characters Sanitize removes from s.
func SanitizeText(s string) string {
	if strings.IndexFunc(s, stripped) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if stripped(r) {
			return -1
		}
		return r
	}, s)
}

func stripped(r rune) bool {
	return r != '\n' && r != '\t' && unicode.IsControl(r)
}
