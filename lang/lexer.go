package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize scans source into a sequence of positioned tokens terminated by a
// single [TokenEOF] token.
func Tokenize(source string) ([]Token, error) {
	l := &lexer{
		input: []byte(source),
		line:  1,
	}

	tokens := make([]Token, 0, len(source)/2+1)

	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, tok)

		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

// lexer holds the scanner state.
type lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

// operators lists multi-character operators before their prefixes so the
// longest match wins.
var operators = []string{
	">=", "<=", "==", "!=", "||", "&&",
	"+", "-", "*", "/", ">", "<", "?", ":", "!",
}

const punctuation = "()[],."

func (l *lexer) next() (Token, error) {
	l.skipWhitespace()

	start := l.position()

	if l.eof() {
		return Token{Kind: TokenEOF, Pos: start}, nil
	}

	ch := l.peek()

	switch {
	case isDigit(ch):
		return l.scanNumber(start), nil

	case ch == '"' || ch == '\'':
		return l.scanString(start, ch)

	case isIdentifierStart(ch):
		return l.scanIdentifier(start), nil

	case strings.ContainsRune(punctuation, ch):
		l.advance()

		return l.token(TokenPunctuation, start), nil
	}

	for _, op := range operators {
		if strings.HasPrefix(string(l.input[l.pos:]), op) {
			for range len(op) {
				l.advance()
			}

			return l.token(TokenOperator, start), nil
		}
	}

	return Token{}, ErrLex.At(start, "Unexpected character %q", string(ch))
}

// token returns a token whose text spans from start to the current position.
func (l *lexer) token(kind TokenKind, start Position) Token {
	text := string(l.input[start.Offset:l.pos])

	return Token{Kind: kind, Text: text, Raw: text, Pos: start}
}

// scanNumber scans a decimal integer or fraction. A '.' is only consumed
// when followed by a digit so that "1.foo" lexes as number, '.', identifier.
func (l *lexer) scanNumber(start Position) Token {
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && l.pos+1 < len(l.input) && isDigit(rune(l.input[l.pos+1])) {
		l.advance()

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	return l.token(TokenNumber, start)
}

// scanString scans a quoted string. A backslash immediately before the
// delimiter escapes it; every other character is taken literally.
func (l *lexer) scanString(start Position, quote rune) (Token, error) {
	l.advance() // skip opening quote

	var text strings.Builder

	for !l.eof() {
		ch := l.peek()

		if ch == '\\' && l.pos+1 < len(l.input) && rune(l.input[l.pos+1]) == quote {
			l.advance()
			l.advance()
			text.WriteRune(quote)

			continue
		}

		l.advance()

		if ch == quote {
			return Token{
				Kind: TokenString,
				Text: text.String(),
				Raw:  string(l.input[start.Offset:l.pos]),
				Pos:  start,
			}, nil
		}

		text.WriteRune(ch)
	}

	return Token{}, ErrLex.At(start, "Unterminated string")
}

func (l *lexer) scanIdentifier(start Position) Token {
	l.advance()

	for !l.eof() && isIdentifierContinue(l.peek()) {
		l.advance()
	}

	return l.token(TokenIdentifier, start)
}

// Helper methods

func (l *lexer) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(l.input[l.pos:])

	return r
}

func (l *lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRune(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func (l *lexer) skipWhitespace() {
	for !l.eof() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// Character classification

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nd, // Number, Decimal Digit
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
	) || r == '_'
}
