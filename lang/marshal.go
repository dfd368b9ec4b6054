package lang

import (
	"encoding/json"
)

// MarshalJSON implements json.Marshaler for AST.
func (ast *AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(ast.ToMap())
}

// ToMap converts the AST to a native Go map structure. Every node becomes a
// map with a "type" and a "pos" entry plus its fields.
func (ast *AST) ToMap() map[string]any {
	return map[string]any{
		"source": ast.Source,
		"root":   nodeToMap(ast.Root),
	}
}

func nodeToMap(n Node) map[string]any {
	if n == nil {
		return nil
	}

	m := map[string]any{"pos": n.Pos().String()}

	switch n := n.(type) {
	case *Literal:
		m["type"] = "Literal"
		m["value"] = jsonSafe(ValueOf(n.Value).Native())

	case *Identifier:
		m["type"] = "Identifier"
		m["path"] = n.Path

	case *ArrayLiteral:
		m["type"] = "ArrayLiteral"
		m["elements"] = nodesToMaps(n.Elements)

	case *BinaryOp:
		m["type"] = "BinaryOp"
		m["op"] = n.Op
		m["left"] = nodeToMap(n.Left)
		m["right"] = nodeToMap(n.Right)

	case *UnaryOp:
		m["type"] = "UnaryOp"
		m["op"] = n.Op
		m["operand"] = nodeToMap(n.Operand)

	case *Ternary:
		m["type"] = "Ternary"
		m["cond"] = nodeToMap(n.Cond)
		m["then"] = nodeToMap(n.Then)
		m["else"] = nodeToMap(n.Else)

	case *MemberAccess:
		m["type"] = "MemberAccess"
		m["base"] = nodeToMap(n.Base)
		m["field"] = n.Field

	case *IndexAccess:
		m["type"] = "IndexAccess"
		m["base"] = nodeToMap(n.Base)
		m["index"] = nodeToMap(n.Index)

	case *Call:
		m["type"] = "Call"
		m["name"] = n.Name
		m["args"] = nodesToMaps(n.Args)

		if n.Receiver != nil {
			m["receiver"] = nodeToMap(n.Receiver)
		}
	}

	return m
}

func nodesToMaps(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToMap(n)
	}

	return out
}
