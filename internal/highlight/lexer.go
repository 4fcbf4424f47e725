package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type rule struct {
	pattern   *regexp.Regexp
	tokenType TokenType
}

// multiLine is a construct that may span lines. Rules are checked in the
// order they were added.
type multiLine struct {
	start     string
	end       string
	tokenType TokenType
	state     LexerState
}

// Lexer is a line-oriented regex tokenizer.
type Lexer struct {
	language string
	aliases  []string
	rules    []rule
	keywords map[string]TokenType
	multi    []multiLine
}

// NewLexer returns an empty lexer for language.
func NewLexer(language string, aliases ...string) *Lexer {
	return &Lexer{
		language: language,
		aliases:  aliases,
		keywords: make(map[string]TokenType),
	}
}

// Language returns the language name.
func (l *Lexer) Language() string {
	return l.language
}

// Aliases returns alternative names for the language.
func (l *Lexer) Aliases() []string {
	return l.aliases
}

// AddRule adds a single-line pattern. Earlier rules win over later ones.
func (l *Lexer) AddRule(pattern string, t TokenType) *Lexer {
	l.rules = append(l.rules, rule{pattern: regexp.MustCompile(pattern), tokenType: t})
	return l
}

// AddKeywords classifies identifiers.
func (l *Lexer) AddKeywords(t TokenType, words ...string) *Lexer {
	for _, w := range words {
		l.keywords[w] = t
	}
	return l
}

// AddMultiLine adds a construct delimited by start and end that may span
// lines.
func (l *Lexer) AddMultiLine(start, end string, t TokenType, state LexerState) *Lexer {
	l.multi = append(l.multi, multiLine{start: start, end: end, tokenType: t, state: state})
	return l
}

// Line tokenizes one line given the state at the end of the previous one.
func (l *Lexer) Line(line string, prev LexerState) ([]Token, LexerState) {
	if prev == StateNormal {
		return l.normal(line)
	}
	ml, ok := l.construct(prev)
	if !ok {
		return l.normal(line)
	}
	idx := strings.Index(line, ml.end)
	if idx < 0 {
		if line == "" {
			return nil, prev
		}
		return []Token{{Type: ml.tokenType, Start: 0, End: len(line)}}, prev
	}
	end := idx + len(ml.end)
	tokens := []Token{{Type: ml.tokenType, Start: 0, End: end}}
	rest, state := l.normal(line[end:])
	for _, t := range rest {
		t.Start += end
		t.End += end
		tokens = append(tokens, t)
	}
	return tokens, state
}

func (l *Lexer) construct(state LexerState) (multiLine, bool) {
	for _, ml := range l.multi {
		if ml.state == state {
			return ml, true
		}
	}
	return multiLine{}, false
}

func (l *Lexer) normal(line string) ([]Token, LexerState) {
	var tokens []Token
	covered := make([]bool, len(line))
	state := StateNormal

	// Single-line rules go first so a comment marker inside a string
	// or a string quote inside a comment is not misread.
	for _, r := range l.rules {
		for _, m := range r.pattern.FindAllStringIndex(line, -1) {
			if m[1] > m[0] && !isCovered(covered, m[0], m[1]) {
				tokens = append(tokens, Token{Type: r.tokenType, Start: m[0], End: m[1]})
				markCovered(covered, m[0], m[1])
			}
		}
	}

	for _, ml := range l.multi {
		from := 0
		for from < len(line) {
			idx := strings.Index(line[from:], ml.start)
			if idx < 0 {
				break
			}
			start := from + idx
			// A single-line rule of the same type may have claimed the
			// opening delimiter, as with Python's triple quotes.
			if isCovered(covered, start, start+len(ml.start)) && !startsToken(tokens, start, ml.tokenType) {
				from = start + len(ml.start)
				continue
			}
			closeIdx := strings.Index(line[start+len(ml.start):], ml.end)
			if closeIdx < 0 {
				dropTokens(&tokens, covered, start, len(line))
				tokens = append(tokens, Token{Type: ml.tokenType, Start: start, End: len(line)})
				markCovered(covered, start, len(line))
				state = ml.state
				break
			}
			end := start + len(ml.start) + closeIdx + len(ml.end)
			dropTokens(&tokens, covered, start, end)
			tokens = append(tokens, Token{Type: ml.tokenType, Start: start, End: end})
			markCovered(covered, start, end)
			from = end
		}
	}

	tokens = append(tokens, l.identifiers(line, covered)...)
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Start < tokens[j].Start })
	return tokens, state
}

// dropTokens removes tokens starting inside [from, to) so a construct
// swallows whatever single-line rules matched within it.
func dropTokens(tokens *[]Token, covered []bool, from, to int) {
	kept := (*tokens)[:0]
	for _, t := range *tokens {
		if t.Start < from || t.Start >= to {
			kept = append(kept, t)
			continue
		}
		for i := t.Start; i < t.End && i < len(covered); i++ {
			covered[i] = false
		}
	}
	*tokens = kept
}

func startsToken(tokens []Token, at int, t TokenType) bool {
	for _, tok := range tokens {
		if tok.Start == at && tok.Type == t {
			return true
		}
	}
	return false
}

func (l *Lexer) identifiers(line string, covered []bool) []Token {
	var tokens []Token
	i := 0
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if covered[i] || !(unicode.IsLetter(r) || r == '_') {
			i += size
			continue
		}
		start := i
		for i < len(line) {
			r, size = utf8.DecodeRuneInString(line[i:])
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') || covered[i] {
				break
			}
			i += size
		}
		if t, ok := l.keywords[line[start:i]]; ok {
			tokens = append(tokens, Token{Type: t, Start: start, End: i})
		}
	}
	return tokens
}

func isCovered(covered []bool, start, end int) bool {
	for i := max(start, 0); i < end && i < len(covered); i++ {
		if covered[i] {
			return true
		}
	}
	return false
}

func markCovered(covered []bool, start, end int) {
	for i := max(start, 0); i < end && i < len(covered); i++ {
		covered[i] = true
	}
}

// GoLexer returns a lexer for Go.
func GoLexer() *Lexer {
	l := NewLexer("go", "golang")
	l.AddMultiLine("/*", "*/", TokenComment, StateBlockComment)
	l.AddMultiLine("`", "`", TokenString, StateBacktick)

	l.AddRule(`//.*$`, TokenComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	l.AddRule(`'(?:[^'\\]|\\.)'`, TokenString)
	l.AddRule(`\b0[xX][0-9a-fA-F]+\b`, TokenNumber)
	l.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, TokenNumber)

	l.AddKeywords(TokenKeyword,
		"if", "else", "for", "range", "switch", "case", "default",
		"break", "continue", "return", "goto", "fallthrough", "select",
		"package", "import", "defer", "go")
	l.AddKeywords(TokenDeclaration,
		"func", "var", "const", "type", "struct", "interface", "map", "chan")
	l.AddKeywords(TokenConstant, "true", "false", "nil", "iota")
	l.AddKeywords(TokenBuiltinType,
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "string", "error", "any")
	l.AddKeywords(TokenBuiltinFunc,
		"make", "new", "len", "cap", "append", "copy", "delete",
		"close", "panic", "recover", "print", "println", "min", "max", "clear")
	return l
}

// PythonLexer returns a lexer for Python.
func PythonLexer() *Lexer {
	l := NewLexer("python", "py")
	l.AddMultiLine(`"""`, `"""`, TokenString, StateTripleDouble)
	l.AddMultiLine(`'''`, `'''`, TokenString, StateTripleSingle)

	l.AddRule(`#.*$`, TokenComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	l.AddRule(`'(?:[^'\\]|\\.)*'`, TokenString)
	l.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?j?\b`, TokenNumber)
	l.AddRule(`@\w+`, TokenMeta)

	l.AddKeywords(TokenKeyword,
		"if", "elif", "else", "for", "while", "break", "continue",
		"return", "try", "except", "finally", "raise", "with", "as",
		"import", "from", "pass", "yield", "in", "is", "not", "and", "or")
	l.AddKeywords(TokenDeclaration, "def", "class", "lambda", "async", "await")
	l.AddKeywords(TokenConstant, "True", "False", "None")
	l.AddKeywords(TokenBuiltinType,
		"int", "float", "str", "bool", "list", "dict", "set", "tuple", "bytes")
	l.AddKeywords(TokenBuiltinFunc,
		"print", "len", "range", "enumerate", "zip", "open", "isinstance", "sorted")
	return l
}

// JavaScriptLexer returns a lexer for JavaScript and TypeScript.
func JavaScriptLexer() *Lexer {
	l := NewLexer("javascript", "js", "typescript", "ts")
	l.AddMultiLine("/*", "*/", TokenComment, StateBlockComment)
	l.AddMultiLine("`", "`", TokenString, StateBacktick)

	l.AddRule(`//.*$`, TokenComment)
	l.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	l.AddRule(`'(?:[^'\\]|\\.)*'`, TokenString)
	l.AddRule(`\b0[xX][0-9a-fA-F]+\b`, TokenNumber)
	l.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, TokenNumber)

	l.AddKeywords(TokenKeyword,
		"if", "else", "for", "while", "do", "switch", "case", "default",
		"break", "continue", "return", "try", "catch", "finally", "throw",
		"import", "export", "from", "new", "typeof", "instanceof", "in", "of")
	l.AddKeywords(TokenDeclaration,
		"var", "let", "const", "function", "class", "extends", "async", "await",
		"interface", "type", "enum")
	l.AddKeywords(TokenConstant, "true", "false", "null", "undefined", "this")
	l.AddKeywords(TokenBuiltinType, "string", "number", "boolean", "object", "any", "void")
	return l
}
