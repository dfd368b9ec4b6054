package lang_test

import (
	"context"
	"fmt"
	"os"
	"testing/fstest"

	"github.com/ardnew/formula/lang"
)

func ExampleEval() {
	v, err := lang.Eval(context.Background(), "greeting + ', ' + toUpperCase(name)",
		lang.WithConstants(map[string]any{
			"greeting": "Hello",
			"name":     "world",
		}))
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(v)
	// Output: Hello, WORLD
}

func ExampleEval_error() {
	_, err := lang.Eval(context.Background(), "toUpperCase()")
	fmt.Println(err)
	// Output: 1,0: Missing argument "toUpperCase"
}

func ExampleEval_include() {
	fsys := fstest.MapFS{
		"service.yaml": {Data: []byte(`url: "https://{{ host }}:{{ port + 1 }}/"`)},
	}

	v, err := lang.Eval(context.Background(), "include('service.yaml').url",
		lang.WithFileSystem(fsys),
		lang.WithConstants(map[string]any{"host": "example.com", "port": 8079}))
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(v)
	// Output: https://example.com:8080/
}

func ExampleAST_Evaluate() {
	ctx := context.Background()

	ast, err := lang.ParseString(ctx, "price * (1 + rate)")
	if err != nil {
		fmt.Println(err)

		return
	}

	for _, price := range []int{100, 250} {
		v, err := ast.Evaluate(ctx, lang.WithConstants(map[string]any{
			"price": price,
			"rate":  0.5,
		}))
		if err != nil {
			fmt.Println(err)

			return
		}

		fmt.Println(v)
	}
	// Output:
	// 150
	// 375
}

func ExampleFunc() {
	repeat := lang.Func(
		[]lang.Kind{lang.KindString, lang.KindNumber},
		func(_ context.Context, args []lang.Value) (any, error) {
			out := ""
			for range int(args[1].AsNumber()) {
				out += args[0].AsString()
			}

			return out, nil
		})

	v, _ := lang.Eval(context.Background(), "repeat('ab', 3)",
		lang.WithFunction("repeat", repeat))

	fmt.Println(v)
	// Output: ababab
}

func ExampleAST_FormatTree() {
	ast, _ := lang.ParseString(context.Background(), "a ? 1 : 2")

	_ = ast.FormatTree(context.Background(), os.Stdout, 2)
	// Output:
	// Ternary @1,0
	//   Identifier a @1,0
	//   Literal 1 @1,4
	//   Literal 2 @1,8
}
