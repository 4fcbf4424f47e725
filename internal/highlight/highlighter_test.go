package highlight

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/net/html"
)

func TestLexerKeywords(t *testing.T) {
	l := NewLexer("test")
	l.AddKeywords(TokenKeyword, "if", "else", "for")

	tokens, _ := l.Line("if x else for", StateNormal)
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}
	for _, tok := range tokens {
		if tok.Type != TokenKeyword {
			t.Errorf("Token type = %v, want TokenKeyword", tok.Type)
		}
	}
}

func TestLexerBlockComment(t *testing.T) {
	l := GoLexer()

	tokens, state := l.Line("x := 1 /* start", StateNormal)
	if state != StateBlockComment {
		t.Fatalf("state = %v, want StateBlockComment", state)
	}
	last := tokens[len(tokens)-1]
	if last.Type != TokenComment || last.Start != 7 {
		t.Errorf("last token = %+v", last)
	}

	tokens, state = l.Line("still */ return", state)
	if state != StateNormal {
		t.Errorf("state = %v, want StateNormal", state)
	}
	if len(tokens) != 2 || tokens[0].End != 8 || tokens[1].Type != TokenKeyword {
		t.Errorf("tokens = %+v", tokens)
	}
}

func TestLexerCommentMarkerInString(t *testing.T) {
	tokens, state := GoLexer().Line(`s := "/* not a comment"`, StateNormal)
	if state != StateNormal {
		t.Errorf("state = %v, want StateNormal", state)
	}
	if len(tokens) != 1 || tokens[0].Type != TokenString {
		t.Errorf("tokens = %+v", tokens)
	}
}

func TestLexerPythonTripleQuotes(t *testing.T) {
	l := PythonLexer()

	tokens, state := l.Line(`x = """doc"""`, StateNormal)
	if state != StateNormal {
		t.Errorf("closed string left state %v", state)
	}
	if len(tokens) != 1 || tokens[0].Start != 4 || tokens[0].End != 13 {
		t.Errorf("tokens = %+v", tokens)
	}

	_, state = l.Line(`"""open`, StateNormal)
	if state != StateTripleDouble {
		t.Errorf("open string state = %v", state)
	}
}

func TestHighlightPreservesText(t *testing.T) {
	r := NewRegistry()
	source := "func main() {\n\t// hi\n\treturn \"x\"\n}"
	target := &html.Node{Type: html.ElementNode, Data: "code"}

	if err := r.Highlight(source, "Go", target); err != nil {
		t.Fatal(err)
	}
	if got := textOf(target); got != source {
		t.Errorf("text = %q, want %q", got, source)
	}

	var buf bytes.Buffer
	_ = html.Render(&buf, target)
	for _, class := range []string{"tok-declaration", "tok-comment", "tok-keyword", "tok-string"} {
		if !bytes.Contains(buf.Bytes(), []byte(class)) {
			t.Errorf("markup lacks %s: %s", class, buf.String())
		}
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	target := &html.Node{Type: html.ElementNode, Data: "code"}
	target.AppendChild(&html.Node{Type: html.TextNode, Data: "keep"})

	err := NewRegistry().Highlight("x", "cobol", target)
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("err = %v", err)
	}
	if textOf(target) != "keep" {
		t.Error("target changed on failure")
	}
}

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"go", "golang", "py", "ts", "JavaScript"} {
		if _, ok := r.Lexer(name); !ok {
			t.Errorf("no lexer for %q", name)
		}
	}
	if n := len(r.Languages()); n != 3 {
		t.Errorf("Languages() = %d entries, want 3", n)
	}
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var s string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s += textOf(c)
	}
	return s
}
