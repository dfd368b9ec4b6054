package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

// ParseReader parses an expression read from r.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*AST, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrIO.Wrap(err)
	}

	return ParseString(ctx, string(data), opts...)
}

// Parse parses src when it is a string. Any other value becomes an AST
// whose root is a [Literal] evaluating to that value unchanged.
//
// Options given here are retained and applied before those passed to
// [AST.Evaluate].
func Parse(ctx context.Context, src any, opts ...Option) (*AST, error) {
	s, ok := src.(string)
	if !ok {
		cfg := makeConfig(opts...)
		cfg.logger.TraceContext(ctx, "parse literal",
			slog.String("type", resultTypeName(src)))

		return &AST{Root: &Literal{Value: src}, opts: opts}, nil
	}

	return ParseString(ctx, s, opts...)
}

// ParseString parses an expression from source text.
func ParseString(ctx context.Context, s string, opts ...Option) (*AST, error) {
	cfg := makeConfig(opts...)

	cfg.logger.TraceContext(ctx, "parse start",
		slog.Int("source_length", len(s)))

	tokens, err := Tokenize(s)
	if err != nil {
		cfg.logger.TraceContext(ctx, "lex failed", slog.Any("error", err))

		return nil, err
	}

	p := &parser{tokens: tokens}

	root, err := p.parseExpression()
	if err == nil && p.peek().Kind != TokenEOF {
		err = p.unexpected()
	}

	if err != nil {
		cfg.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("token_count", len(tokens)))

	return &AST{Root: root, Source: s, opts: opts}, nil
}

// parser holds the parser state.
type parser struct {
	tokens []Token
	pos    int
}

// binaryLevels lists binary operators from lowest to highest precedence.
// All are left-associative.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{">", ">=", "<", "<="},
	{"+", "-"},
	{"*", "/"},
}

// parseExpression parses: Binary [ '?' Expression ':' Expression ].
func (p *parser) parseExpression() (Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	if !p.peek().is("?") {
		return cond, nil
	}

	p.advance()

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := p.expect(":"); err != nil {
		return nil, err
	}

	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Ternary{Cond: cond, Then: then, Else: els, Start: cond.Pos()}, nil
}

// parseBinary parses the operators at binaryLevels[level] and above.
func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.matchAny(binaryLevels[level])
		if !ok {
			return left, nil
		}

		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}

		left = &BinaryOp{Op: op, Left: left, Right: right, Start: left.Pos()}
	}
}

// parseUnary parses: ( '-' | '!' ) Unary | Postfix.
func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if !tok.is("-") && !tok.is("!") {
		return p.parsePostfix()
	}

	p.advance()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &UnaryOp{Op: tok.Text, Operand: operand, Start: tok.Pos}, nil
}

// parsePostfix parses: Primary { '.' Identifier | '[' Expression ']' |
// '(' Arguments ')' }.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		switch {
		case tok.is("."):
			p.advance()

			field := p.peek()
			if field.Kind != TokenIdentifier {
				return nil, p.unexpected()
			}

			p.advance()

			// Fold a.b.c into a single dotted identifier.
			if id, ok := node.(*Identifier); ok {
				node = &Identifier{
					Path:  append(append([]string(nil), id.Path...), field.Text),
					Start: id.Start,
				}
			} else {
				node = &MemberAccess{Base: node, Field: field.Text, Start: node.Pos()}
			}

		case tok.is("["):
			p.advance()

			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if err := p.expect("]"); err != nil {
				return nil, err
			}

			node = &IndexAccess{Base: node, Index: index, Start: node.Pos()}

		case tok.is("("):
			call, err := p.callee(node, tok)
			if err != nil {
				return nil, err
			}

			p.advance()

			if call.Args, err = p.parseList(")"); err != nil {
				return nil, err
			}

			node = call

		default:
			return node, nil
		}
	}
}

// callee returns the call node for a postfix '(' applied to node.
func (p *parser) callee(node Node, paren Token) (*Call, error) {
	switch n := node.(type) {
	case *Identifier:
		return &Call{Name: n.Name(), Start: n.Start}, nil

	case *MemberAccess:
		return &Call{Name: n.Field, Receiver: n.Base, Start: n.Start}, nil

	default:
		return nil, ErrSyntax.At(paren.Pos, "Unexpected token %s", paren.describe())
	}
}

// parsePrimary parses a literal, identifier, parenthesized expression or
// array literal.
func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenNumber:
		p.advance()

		n, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, ErrSyntax.At(tok.Pos, "Invalid number %s", tok.describe()).Wrap(err)
		}

		return &Literal{Value: n, Raw: tok.Raw, Start: tok.Pos}, nil

	case TokenString:
		p.advance()

		return &Literal{Value: tok.Text, Raw: tok.Raw, Start: tok.Pos}, nil

	case TokenIdentifier:
		p.advance()

		switch tok.Text {
		case "true":
			return &Literal{Value: true, Raw: tok.Raw, Start: tok.Pos}, nil

		case "false":
			return &Literal{Value: false, Raw: tok.Raw, Start: tok.Pos}, nil

		case "null":
			return &Literal{Value: nil, Raw: tok.Raw, Start: tok.Pos}, nil
		}

		return &Identifier{Path: []string{tok.Text}, Start: tok.Pos}, nil

	case TokenPunctuation:
		switch {
		case tok.is("("):
			p.advance()

			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if err := p.expect(")"); err != nil {
				return nil, err
			}

			return inner, nil

		case tok.is("["):
			p.advance()

			elems, err := p.parseList("]")
			if err != nil {
				return nil, err
			}

			return &ArrayLiteral{Elements: elems, Start: tok.Pos}, nil
		}
	}

	return nil, p.unexpected()
}

// parseList parses a comma-separated expression list up to and including
// the closing punctuation.
func (p *parser) parseList(closing string) ([]Node, error) {
	list := []Node{}

	if p.peek().is(closing) {
		p.advance()

		return list, nil
	}

	for {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		list = append(list, elem)

		if p.peek().is(",") {
			p.advance()

			continue
		}

		return list, p.expect(closing)
	}
}

// Helper methods

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) advance() {
	if p.tokens[p.pos].Kind != TokenEOF {
		p.pos++
	}
}

func (p *parser) matchAny(ops []string) (string, bool) {
	tok := p.peek()

	for _, op := range ops {
		if tok.is(op) {
			p.advance()

			return op, true
		}
	}

	return "", false
}

func (p *parser) expect(s string) error {
	tok := p.peek()
	if !tok.is(s) {
		if tok.Kind == TokenEOF {
			return ErrSyntax.At(tok.Pos, "Expected %q, found end of input", s)
		}

		return ErrSyntax.At(tok.Pos, "Expected %q, found %s", s, tok.describe())
	}

	p.advance()

	return nil
}

func (p *parser) unexpected() error {
	tok := p.peek()
	if tok.Kind == TokenEOF {
		return ErrSyntax.At(tok.Pos, "Unexpected end of input")
	}

	return ErrSyntax.At(tok.Pos, "Unexpected token %s", tok.describe())
}
