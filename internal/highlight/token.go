// Package highlight provides regex-based syntax highlighting for code
// blocks.
//
// A Lexer tokenizes source one line at a time, carrying a LexerState
// across lines so block comments and multi-line strings continue on the
// following lines. A Registry maps language names to lexers and renders
// highlighted source into an HTML fragment whose text content equals the
// source exactly.
package highlight

// TokenType is the semantic class of a token.
type TokenType uint8

// Token types.
const (
	TokenNone TokenType = iota
	TokenComment
	TokenString
	TokenNumber
	TokenKeyword
	TokenDeclaration
	TokenConstant
	TokenBuiltinType
	TokenBuiltinFunc
	TokenIdentifier
	TokenMeta
	TokenRegexp
)

var tokenClasses = [...]string{
	TokenNone:        "",
	TokenComment:     "tok-comment",
	TokenString:      "tok-string",
	TokenNumber:      "tok-number",
	TokenKeyword:     "tok-keyword",
	TokenDeclaration: "tok-declaration",
	TokenConstant:    "tok-constant",
	TokenBuiltinType: "tok-type",
	TokenBuiltinFunc: "tok-builtin",
	TokenIdentifier:  "",
	TokenMeta:        "tok-meta",
	TokenRegexp:      "tok-regexp",
}

// Class returns the CSS class for the token type. Identifiers and plain
// text have none.
func (t TokenType) Class() string {
	if int(t) < len(tokenClasses) {
		return tokenClasses[t]
	}
	return ""
}

// Token is a highlighted span of one line. Start and End are byte
// offsets into the line, End exclusive.
type Token struct {
	Type  TokenType
	Start int
	End   int
}

// LexerState is the lexer state at a line boundary.
type LexerState uint8

// Lexer states.
const (
	StateNormal LexerState = iota
	StateBlockComment
	StateBacktick
	StateTripleDouble
	StateTripleSingle
)
