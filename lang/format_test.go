package lang

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNode_RoundTrip(t *testing.T) {
	inputs := []string{
		"1 + 2 * 3",
		"(a || b) && !c",
		"x ? [1, 'two'] : myObject.level1[1].level2",
		"toUpperCase(substring(s, 0, 2)) + 'x'",
		"[1, 2].length()",
		"-(-1)",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			ast, err := ParseString(t.Context(), input)
			require.NoError(t, err)

			again, err := ParseString(t.Context(), ast.String())
			require.NoError(t, err)

			assert.Equal(t, ast.String(), again.String())
		})
	}
}

func TestFormatNode_HostLiterals(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{&Literal{Value: nil}, "null"},
		{&Literal{Value: true}, "true"},
		{&Literal{Value: 2.5}, "2.5"},
		{&Literal{Value: "it's"}, `"it's"`},
		{&Literal{Value: `a'b"c`}, `'a\'b"c'`},
		{&BinaryOp{Op: "*", Left: &BinaryOp{Op: "+", Left: &Literal{Value: 1.0}, Right: &Literal{Value: 2.0}}, Right: &Literal{Value: 3.0}}, "(1 + 2) * 3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNode(tt.node))
		})
	}
}

func TestAST_FormatJSON(t *testing.T) {
	ast, err := ParseString(t.Context(), "f(a, 1)")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ast.FormatJSON(t.Context(), &buf, 2))

	var out struct {
		Source string `json:"source"`
		Root   struct {
			Type string           `json:"type"`
			Name string           `json:"name"`
			Pos  string           `json:"pos"`
			Args []map[string]any `json:"args"`
		} `json:"root"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "f(a, 1)", out.Source)
	assert.Equal(t, "Call", out.Root.Type)
	assert.Equal(t, "f", out.Root.Name)
	assert.Equal(t, "1,0", out.Root.Pos)
	require.Len(t, out.Root.Args, 2)
	assert.Equal(t, "Identifier", out.Root.Args[0]["type"])
	assert.Equal(t, 1.0, out.Root.Args[1]["value"])
}

func TestAST_FormatYAML(t *testing.T) {
	ast, err := ParseString(t.Context(), "-x")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ast.FormatYAML(t.Context(), &buf, 2))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))

	root, ok := out["root"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UnaryOp", root["type"])
	assert.Equal(t, "-", root["op"])
}

func TestAST_FormatTree(t *testing.T) {
	ast, err := ParseString(t.Context(), "a + f(1)")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ast.FormatTree(t.Context(), &buf, 2))

	want := strings.Join([]string{
		"BinaryOp + @1,0",
		"  Identifier a @1,0",
		"  Call f @1,4",
		"    Literal 1 @1,6",
		"",
	}, "\n")

	assert.Equal(t, want, buf.String())
}

func TestFormatValue(t *testing.T) {
	v := Object(map[string]Value{
		"list": Array(Number(1), String("a")),
		"buf":  Buffer([]byte("raw")),
	})

	tests := []struct {
		format string
		want   string
	}{
		{"native", `{"buf":"raw","list":[1,"a"]}` + "\n"},
		{"json", `{"buf":"raw","list":[1,"a"]}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, FormatValue(t.Context(), &buf, v, tt.format))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, FormatValue(t.Context(), &buf, v, "yaml"))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "raw", out["buf"])

	assert.Error(t, FormatValue(t.Context(), &buf, v, "xml"))
}
