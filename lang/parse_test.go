package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestParseString_Precedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "1 + 2 * 3"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"1 - (2 - 3)", "1 - (2 - 3)"},
		{"1 - 2 - 3", "1 - 2 - 3"},
		{"a || b && c", "a || b && c"},
		{"(a || b) && c", "(a || b) && c"},
		{"a ? b : c ? d : e", "a ? b : c ? d : e"},
		{"(a ? b : c) ? d : e", "(a ? b : c) ? d : e"},
		{"-x.y[0]", "-x.y[0]"},
		{"!(a == b)", "!(a == b)"},
		{"1 < 2 == true", "1 < 2 == true"},
		{"[1, 'two', [3]]", "[1, 'two', [3]]"},
		{"toUpperCase(s.t)", "toUpperCase(s.t)"},
		{"(a).b.c", "a.b.c"},
		{`"it's"`, `"it's"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ast, err := ParseString(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if got := ast.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseString_NodeShapes(t *testing.T) {
	ast, err := ParseString(t.Context(), "myObject.level1[1].level2")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	member, ok := ast.Root.(*MemberAccess)
	if !ok {
		t.Fatalf("expected *MemberAccess root, got %T", ast.Root)
	}

	if member.Field != "level2" {
		t.Errorf("expected field level2, got %q", member.Field)
	}

	index, ok := member.Base.(*IndexAccess)
	if !ok {
		t.Fatalf("expected *IndexAccess base, got %T", member.Base)
	}

	id, ok := index.Base.(*Identifier)
	if !ok || id.Name() != "myObject.level1" {
		t.Errorf("expected identifier myObject.level1, got %#v", index.Base)
	}
}

func TestParseString_MethodCall(t *testing.T) {
	ast, err := ParseString(t.Context(), "[1, 2].length()")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	call, ok := ast.Root.(*Call)
	if !ok {
		t.Fatalf("expected *Call root, got %T", ast.Root)
	}

	if call.Name != "length" || call.Receiver == nil {
		t.Errorf("expected method call length with receiver, got %#v", call)
	}
}

func TestParseString_DottedCall(t *testing.T) {
	ast, err := ParseString(t.Context(), "  a.b.fn(1)")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	call, ok := ast.Root.(*Call)
	if !ok {
		t.Fatalf("expected *Call root, got %T", ast.Root)
	}

	if call.Name != "a.b.fn" || call.Receiver != nil {
		t.Errorf("expected dotted call a.b.fn, got %#v", call)
	}

	if call.Pos().String() != "1,2" {
		t.Errorf("expected position 1,2, got %s", call.Pos())
	}
}

func TestParseString_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 +", "1,3: Unexpected end of input"},
		{"(1 + 2", `1,6: Expected ")", found end of input`},
		{"1 2", `1,2: Unexpected token "2"`},
		{"a ? b", `1,5: Expected ":", found end of input`},
		{"[1, 2", `1,5: Expected "]", found end of input`},
		{"f(1,)", `1,4: Unexpected token ")"`},
		{"1(2)", `1,1: Unexpected token "("`},
		{"a.", "1,2: Unexpected end of input"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseString(t.Context(), tt.input)
			if err == nil {
				t.Fatal("expected error")
			}

			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}

			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParse_NonStringIsLiteral(t *testing.T) {
	obj := map[string]any{"name": "a1"}

	ast, err := Parse(t.Context(), obj)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	lit, ok := ast.Root.(*Literal)
	if !ok {
		t.Fatalf("expected *Literal root, got %T", ast.Root)
	}

	if m, ok := lit.Value.(map[string]any); !ok || m["name"] != "a1" {
		t.Errorf("expected literal to hold the object, got %#v", lit.Value)
	}
}

func TestParseReader(t *testing.T) {
	ast, err := ParseReader(t.Context(), strings.NewReader("1+1"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if ast.Source != "1+1" {
		t.Errorf("expected source retained, got %q", ast.Source)
	}
}

func TestAST_IdentifiersAndCalls(t *testing.T) {
	ast, err := ParseString(t.Context(), "f(a.b, g(c)) + a.b")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	ids := ast.Identifiers()
	if strings.Join(ids, ",") != "a.b,c" {
		t.Errorf("unexpected identifiers %v", ids)
	}

	calls := ast.Calls()
	if strings.Join(calls, ",") != "f,g" {
		t.Errorf("unexpected calls %v", calls)
	}
}
