package highlight

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrUnsupportedLanguage is returned for languages without a lexer.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Registry maps language names and aliases to lexers.
type Registry struct {
	mu     sync.RWMutex
	lexers map[string]*Lexer
}

// NewRegistry returns a registry holding the built-in lexers.
func NewRegistry() *Registry {
	r := &Registry{lexers: make(map[string]*Lexer)}
	r.Register(GoLexer())
	r.Register(PythonLexer())
	r.Register(JavaScriptLexer())
	return r
}

// Register adds a lexer under its language name and aliases.
func (r *Registry) Register(l *Lexer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lexers[strings.ToLower(l.Language())] = l
	for _, a := range l.Aliases() {
		r.lexers[strings.ToLower(a)] = l
	}
}

// Lexer returns the lexer for a language name or alias.
func (r *Registry) Lexer(language string) (*Lexer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lexers[strings.ToLower(strings.TrimSpace(language))]
	return l, ok
}

// Languages returns the registered language names.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[*Lexer]bool)
	var out []string
	for _, l := range r.lexers {
		if !seen[l] {
			seen[l] = true
			out = append(out, l.Language())
		}
	}
	return out
}

// Tokenize splits source into lines and tokenizes each one.
func (l *Lexer) Tokenize(source string) [][]Token {
	lines := strings.Split(source, "\n")
	out := make([][]Token, len(lines))
	state := StateNormal
	for i, line := range lines {
		out[i], state = l.Line(line, state)
	}
	return out
}

// Highlight replaces the children of target with highlighted source.
// Tokens become span elements carrying a tok-* class; the text content
// of target equals source. Unknown languages return
// ErrUnsupportedLanguage and leave target untouched.
func (r *Registry) Highlight(source, language string, target *html.Node) error {
	l, ok := r.Lexer(language)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	for c := target.FirstChild; c != nil; {
		next := c.NextSibling
		target.RemoveChild(c)
		c = next
	}

	lines := strings.Split(source, "\n")
	tokens := l.Tokenize(source)
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			target.AppendChild(&html.Node{Type: html.TextNode, Data: text.String()})
			text.Reset()
		}
	}
	for i, line := range lines {
		if i > 0 {
			text.WriteByte('\n')
		}
		pos := 0
		for _, t := range tokens[i] {
			class := t.Type.Class()
			if class == "" || t.Start < pos {
				continue
			}
			text.WriteString(line[pos:t.Start])
			flush()
			span := &html.Node{
				Type:     html.ElementNode,
				Data:     "span",
				DataAtom: atom.Span,
				Attr:     []html.Attribute{{Key: "class", Val: class}},
			}
			span.AppendChild(&html.Node{Type: html.TextNode, Data: line[t.Start:t.End]})
			target.AppendChild(span)
			pos = t.End
		}
		text.WriteString(line[pos:])
	}
	flush()
	return nil
}
