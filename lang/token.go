package lang

import "strconv"

// Position identifies a location in expression source.
// Line is 1-based; Column is the 0-based rune offset within the line.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String returns "<line>,<column>".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + "," + strconv.Itoa(p.Column)
}

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenNumber
	TokenString
	TokenIdentifier
	TokenOperator
	TokenPunctuation
)

// String returns a string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"

	case TokenNumber:
		return "Number"

	case TokenString:
		return "String"

	case TokenIdentifier:
		return "Identifier"

	case TokenOperator:
		return "Operator"

	case TokenPunctuation:
		return "Punctuation"

	default:
		return "Unknown"
	}
}

// Token is a lexical token with its source position.
//
// For string tokens Text holds the decoded contents (without quotes);
// Raw always holds the source text.
type Token struct {
	Text string
	Raw  string
	Kind TokenKind
	Pos  Position
}

// is reports whether t is an operator or punctuation token with text s.
func (t Token) is(s string) bool {
	return (t.Kind == TokenOperator || t.Kind == TokenPunctuation) && t.Text == s
}

// describe returns the token as it appears in diagnostics.
func (t Token) describe() string {
	if t.Kind == TokenEOF {
		return "end of input"
	}

	return strconv.Quote(t.Raw)
}
