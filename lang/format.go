package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Operator precedence levels used by the canonical printer, lowest first.
const (
	precTernary = iota + 1
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

var binaryPrec = map[string]int{
	"||": precOr,
	"&&": precAnd,
	"==": precEquality, "!=": precEquality,
	">": precRelational, ">=": precRelational, "<": precRelational, "<=": precRelational,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative,
}

// String returns the canonical source of the expression.
func (ast *AST) String() string {
	return FormatNode(ast.Root)
}

// Format writes the canonical source of the expression to the writer,
// followed by a newline.
func (ast *AST) Format(_ context.Context, w io.Writer) error {
	_, err := fmt.Fprintln(w, FormatNode(ast.Root))

	return err
}

// FormatJSON writes the AST as JSON to the writer.
func (ast *AST) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(ast, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(ast)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the AST as YAML to the writer.
func (ast *AST) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, ast.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// FormatTree writes the AST as an indented tree, one node per line with its
// position.
func (ast *AST) FormatTree(_ context.Context, w io.Writer, indent int) error {
	for n, depth := range walkDepth(ast.Root, 0) {
		line := strings.Repeat(" ", depth*indent) + describeNode(n) + " @" + n.Pos().String()
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// walkDepth yields n and its descendants in pre-order with their depth.
func walkDepth(n Node, depth int) func(yield func(Node, int) bool) {
	return func(yield func(Node, int) bool) {
		var visit func(Node, int) bool

		visit = func(n Node, depth int) bool {
			if !yield(n, depth) {
				return false
			}

			for _, c := range Children(n) {
				if !visit(c, depth+1) {
					return false
				}
			}

			return true
		}

		if n != nil {
			visit(n, depth)
		}
	}
}

func describeNode(n Node) string {
	switch n := n.(type) {
	case *Literal:
		return "Literal " + formatLiteral(n)

	case *Identifier:
		return "Identifier " + n.Name()

	case *ArrayLiteral:
		return "ArrayLiteral"

	case *BinaryOp:
		return "BinaryOp " + n.Op

	case *UnaryOp:
		return "UnaryOp " + n.Op

	case *Ternary:
		return "Ternary"

	case *MemberAccess:
		return "MemberAccess ." + n.Field

	case *IndexAccess:
		return "IndexAccess"

	case *Call:
		if n.Receiver != nil {
			return "Call ." + n.Name
		}

		return "Call " + n.Name

	default:
		return fmt.Sprintf("%T", n)
	}
}

// FormatNode returns the canonical source of n, with parentheses only where
// precedence requires them.
func FormatNode(n Node) string {
	var buf strings.Builder

	formatNode(&buf, n, precTernary)

	return buf.String()
}

func nodePrec(n Node) int {
	switch n := n.(type) {
	case *Ternary:
		return precTernary

	case *BinaryOp:
		return binaryPrec[n.Op]

	case *UnaryOp:
		return precUnary

	case *MemberAccess, *IndexAccess, *Call:
		return precPostfix

	default:
		return precPrimary
	}
}

func formatNode(buf *strings.Builder, n Node, minPrec int) {
	if n == nil {
		return
	}

	if nodePrec(n) < minPrec {
		buf.WriteByte('(')
		defer buf.WriteByte(')')
	}

	switch n := n.(type) {
	case *Literal:
		buf.WriteString(formatLiteral(n))

	case *Identifier:
		buf.WriteString(n.Name())

	case *ArrayLiteral:
		buf.WriteByte('[')
		formatList(buf, n.Elements)
		buf.WriteByte(']')

	case *BinaryOp:
		prec := binaryPrec[n.Op]

		formatNode(buf, n.Left, prec)
		buf.WriteString(" " + n.Op + " ")
		formatNode(buf, n.Right, prec+1)

	case *UnaryOp:
		buf.WriteString(n.Op)
		formatNode(buf, n.Operand, precUnary)

	case *Ternary:
		formatNode(buf, n.Cond, precOr)
		buf.WriteString(" ? ")
		formatNode(buf, n.Then, precTernary)
		buf.WriteString(" : ")
		formatNode(buf, n.Else, precTernary)

	case *MemberAccess:
		formatNode(buf, n.Base, precPostfix)
		buf.WriteString("." + n.Field)

	case *IndexAccess:
		formatNode(buf, n.Base, precPostfix)
		buf.WriteByte('[')
		formatNode(buf, n.Index, precTernary)
		buf.WriteByte(']')

	case *Call:
		if n.Receiver != nil {
			formatNode(buf, n.Receiver, precPostfix)
			buf.WriteByte('.')
		}

		buf.WriteString(n.Name + "(")
		formatList(buf, n.Args)
		buf.WriteByte(')')
	}
}

func formatList(buf *strings.Builder, nodes []Node) {
	for i, e := range nodes {
		if i > 0 {
			buf.WriteString(", ")
		}

		formatNode(buf, e, precTernary)
	}
}

// formatLiteral returns the source of a literal: its original token when it
// was parsed, otherwise a rendering of the host value.
func formatLiteral(n *Literal) string {
	if n.Raw != "" {
		return n.Raw
	}

	switch v := n.Value.(type) {
	case nil:
		return "null"

	case bool:
		return strconv.FormatBool(v)

	case float64:
		return formatNumber(v)

	case string:
		return quote(v)
	}

	return ValueOf(n.Value).String()
}

// quote returns s as a string literal, preferring single quotes.
func quote(s string) string {
	q := "'"
	if strings.Contains(s, q) && !strings.Contains(s, `"`) {
		q = `"`
	}

	return q + strings.ReplaceAll(s, q, `\`+q) + q
}

// FormatValue writes a resolved value to the writer in the named format:
// "native" (textual representation), "json" or "yaml". Buffers are rendered
// as text in every format.
func FormatValue(ctx context.Context, w io.Writer, v Value, format string) error {
	v, err := DeepResolve(ctx, v)
	if err != nil {
		return err
	}

	var out []byte

	switch format {
	case "", "native":
		out = []byte(v.String())

	case "json":
		out, err = json.Marshal(jsonSafe(v.Native()))

	case "yaml":
		out, err = yaml.MarshalContext(ctx, jsonSafe(v.Native()))
		out = []byte(strings.TrimSuffix(string(out), "\n"))

	default:
		err = fmt.Errorf("unknown output format %q", format)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(out))

	return err
}
