package lang

import (
	"errors"
	"testing"
)

func TestTokenize_Kinds(t *testing.T) {
	tokens, err := Tokenize(`a.b >= 1.5 ? 'x' : "y"`)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	want := []struct {
		kind TokenKind
		text string
	}{
		{TokenIdentifier, "a"},
		{TokenPunctuation, "."},
		{TokenIdentifier, "b"},
		{TokenOperator, ">="},
		{TokenNumber, "1.5"},
		{TokenOperator, "?"},
		{TokenString, "x"},
		{TokenOperator, ":"},
		{TokenString, "y"},
		{TokenEOF, ""},
	}

	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}

	for i, w := range want {
		if tokens[i].Kind != w.kind || tokens[i].Text != w.text {
			t.Errorf("token %d: expected %s %q, got %s %q",
				i, w.kind, w.text, tokens[i].Kind, tokens[i].Text)
		}
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize("x\n  + é + y")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	tests := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 0}, // x
		{1, 2, 2}, // +
		{3, 2, 6}, // second +, columns count runes
		{4, 2, 8}, // y
	}

	for _, tt := range tests {
		pos := tokens[tt.index].Pos
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("token %d %q: expected %d,%d, got %s",
				tt.index, tokens[tt.index].Text, tt.line, tt.column, pos)
		}
	}
}

func TestTokenize_NumberBeforeDot(t *testing.T) {
	tokens, err := Tokenize("1.foo")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	if tokens[0].Text != "1" || !tokens[1].is(".") || tokens[2].Text != "foo" {
		t.Errorf("expected 1 . foo, got %v", tokens)
	}
}

func TestTokenize_StringEscapesOnlyDelimiter(t *testing.T) {
	tokens, err := Tokenize(`'it\'s \n' "say \"hi\""`)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	if got := tokens[0].Text; got != `it's \n` {
		t.Errorf("expected %q, got %q", `it's \n`, got)
	}

	if got := tokens[1].Text; got != `say "hi"` {
		t.Errorf("expected %q, got %q", `say "hi"`, got)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unexpected character", "1 # 2", `1,2: Unexpected character "#"`},
		{"unterminated string", "  'abc", "1,2: Unterminated string"},
		{"second line", "1 +\n @", `2,1: Unexpected character "@"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}

			if !errors.Is(err, ErrLex) {
				t.Errorf("expected ErrLex, got %v", err)
			}

			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}
