package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/pkg"
)

func TestScopeConstants(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "constants.yaml")
	data := "app:\n  name: demo\n  port: 8080\nlist: [a, b]\n"

	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	scope := &Scope{
		ConstFile: []string{file},
		Const: []string{
			"app.port=9090",
			"app.debug=true",
			"ratio=0.5",
			"greeting=hello, world",
			"empty=",
		},
	}

	got, err := scope.Constants(t.Context())
	if err != nil {
		t.Fatalf("Constants() error = %v", err)
	}

	app, ok := got["app"].(map[string]any)
	if !ok {
		t.Fatalf("app = %#v, want mapping", got["app"])
	}

	if app["name"] != "demo" {
		t.Errorf("app.name = %#v, want %q", app["name"], "demo")
	}

	if app["debug"] != true {
		t.Errorf("app.debug = %#v, want true", app["debug"])
	}

	if port := fmt.Sprint(app["port"]); port != "9090" {
		t.Errorf("app.port = %s, want 9090", port)
	}

	if got["ratio"] != 0.5 {
		t.Errorf("ratio = %#v, want 0.5", got["ratio"])
	}

	if got["greeting"] != "hello, world" {
		t.Errorf("greeting = %#v, want %q", got["greeting"], "hello, world")
	}

	if got["empty"] != "" {
		t.Errorf("empty = %#v, want empty string", got["empty"])
	}

	if list, ok := got["list"].([]any); !ok || len(list) != 2 {
		t.Errorf("list = %#v, want two elements", got["list"])
	}
}

func TestScopeConstantsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
		want  error
	}{
		{"missing_equals", Scope{Const: []string{"name"}}, pkg.ErrInvalidConstant},
		{"empty_name", Scope{Const: []string{"=1"}}, pkg.ErrInvalidConstant},
		{"missing_file", Scope{ConstFile: []string{"/nonexistent/constants.yaml"}}, pkg.ErrReadInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.scope.Constants(t.Context())
			if !errors.Is(err, tt.want) {
				t.Errorf("Constants() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScopeOptions(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("contents"), 0o644); err != nil {
		t.Fatal(err)
	}

	scope := &Scope{
		Basedir:  dir,
		Const:    []string{"name=doc.txt"},
		MaxDepth: 3,
	}

	opts, err := scope.Options(t.Context())
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}

	got, err := lang.Eval(t.Context(), "exists(name)", opts...)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	if got != true {
		t.Errorf("exists(name) = %#v, want true", got)
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"1.5", 1.5},
		{"null", nil},
		{"", ""},
		{"a: b", "a: b"},
		{"[1, 2]", "[1, 2]"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := parseScalar(t.Context(), tt.raw); got != tt.want {
				t.Errorf("parseScalar(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMergeMaps(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 1}
	mergeMaps(dst, map[string]any{"a": map[string]any{"y": 3}, "b": map[string]any{"c": 4}})

	want := map[string]any{"a": map[string]any{"x": 1, "y": 3}, "b": map[string]any{"c": 4}}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("mergeMaps() = %#v, want %#v", dst, want)
	}

	if got := nest([]string{"a", "b", "c"}, 1); !reflect.DeepEqual(got, map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1}},
	}) {
		t.Errorf("nest() = %#v", got)
	}
}
