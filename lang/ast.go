package lang

import (
	"iter"
	"strings"
)

// AST is a parsed expression.
type AST struct {
	Root   Node
	Source string
	opts   []Option // applied before the options passed to Evaluate
}

// Node is an expression node. Every node carries the position of its first
// token. Nodes are immutable once built.
type Node interface {
	Pos() Position
	node()
}

// Literal is a constant value: a number, string, boolean or null token, or
// an arbitrary host value passed to [Parse] in place of source text.
type Literal struct {
	Value any
	Raw   string // source text; empty for host values
	Start Position
}

// Identifier is a dotted constant path such as os.platform.
type Identifier struct {
	Path  []string
	Start Position
}

// Name returns the dotted path.
func (n *Identifier) Name() string { return strings.Join(n.Path, ".") }

// ArrayLiteral is a bracketed list of element expressions.
type ArrayLiteral struct {
	Elements []Node
	Start    Position
}

// BinaryOp is a binary operator application.
type BinaryOp struct {
	Left  Node
	Right Node
	Op    string
	Start Position
}

// UnaryOp is a prefix "-" or "!" application.
type UnaryOp struct {
	Operand Node
	Op      string
	Start   Position
}

// Ternary is cond ? then : else.
type Ternary struct {
	Cond  Node
	Then  Node
	Else  Node
	Start Position
}

// MemberAccess is base.field.
type MemberAccess struct {
	Base  Node
	Field string
	Start Position
}

// IndexAccess is base[index].
type IndexAccess struct {
	Base  Node
	Index Node
	Start Position
}

// Call is a function call. Receiver is non-nil for the method form
// base.name(args), which calls name with base as its first argument.
type Call struct {
	Receiver Node
	Name     string
	Args     []Node
	Start    Position
}

func (n *Literal) Pos() Position      { return n.Start }
func (n *Identifier) Pos() Position   { return n.Start }
func (n *ArrayLiteral) Pos() Position { return n.Start }
func (n *BinaryOp) Pos() Position     { return n.Start }
func (n *UnaryOp) Pos() Position      { return n.Start }
func (n *Ternary) Pos() Position      { return n.Start }
func (n *MemberAccess) Pos() Position { return n.Start }
func (n *IndexAccess) Pos() Position  { return n.Start }
func (n *Call) Pos() Position         { return n.Start }

func (*Literal) node()      {}
func (*Identifier) node()   {}
func (*ArrayLiteral) node() {}
func (*BinaryOp) node()     {}
func (*UnaryOp) node()      {}
func (*Ternary) node()      {}
func (*MemberAccess) node() {}
func (*IndexAccess) node()  {}
func (*Call) node()         {}

// Children returns the direct sub-expressions of n in source order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *ArrayLiteral:
		return n.Elements

	case *BinaryOp:
		return []Node{n.Left, n.Right}

	case *UnaryOp:
		return []Node{n.Operand}

	case *Ternary:
		return []Node{n.Cond, n.Then, n.Else}

	case *MemberAccess:
		return []Node{n.Base}

	case *IndexAccess:
		return []Node{n.Base, n.Index}

	case *Call:
		if n.Receiver != nil {
			return append([]Node{n.Receiver}, n.Args...)
		}

		return n.Args

	default:
		return nil
	}
}

// Walk returns an iterator over n and all of its descendants in depth-first
// pre-order.
func Walk(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(n, yield)
	}
}

func walk(n Node, yield func(Node) bool) bool {
	if n == nil {
		return true
	}

	if !yield(n) {
		return false
	}

	for _, c := range Children(n) {
		if !walk(c, yield) {
			return false
		}
	}

	return true
}

// Identifiers returns the distinct constant paths referenced by the
// expression, in order of first appearance.
func (ast *AST) Identifiers() []string {
	var names []string

	seen := map[string]bool{}

	for n := range Walk(ast.Root) {
		if id, ok := n.(*Identifier); ok && !seen[id.Name()] {
			seen[id.Name()] = true
			names = append(names, id.Name())
		}
	}

	return names
}

// Calls returns the distinct function names called by the expression, in
// order of first appearance.
func (ast *AST) Calls() []string {
	var names []string

	seen := map[string]bool{}

	for n := range Walk(ast.Root) {
		if c, ok := n.(*Call); ok && !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}

	return names
}
