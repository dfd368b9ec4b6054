package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

// Eval evaluates an expression and prints its result.
type Eval struct {
	Output string   `default:"native" enum:"native,json,yaml" help:"Output format (${enum})." short:"o"`
	Expr   []string `arg:""           help:"Expression to evaluate; read from --source or stdin when omitted." name:"expr" optional:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readExpression(ctx, e.Expr)
	if err != nil {
		return err
	}

	v, err := evaluate(ctx, src)
	if err != nil {
		return report(ctx, src, err).With(slog.String("command", "eval"))
	}

	err = lang.FormatValue(ctx, streamsFrom(ctx).Out, v, e.Output)
	if err != nil {
		return report(ctx, src, err).With(
			slog.String("command", "eval"),
			slog.String("output", e.Output),
		)
	}

	return nil
}

// evaluate parses and evaluates src with the options carried by ctx.
func evaluate(ctx context.Context, src string) (lang.Value, error) {
	opts, err := evalOptions(ctx)
	if err != nil {
		return lang.Value{}, err
	}

	ast, err := lang.ParseString(ctx, src, opts...)
	if err != nil {
		return lang.Value{}, err
	}

	log.DebugContext(ctx, "parsed expression",
		slog.String("canonical", ast.String()),
		slog.Any("calls", ast.Calls()),
	)

	return ast.Evaluate(ctx)
}

// report writes the source diagnostic of a positioned error to the error
// stream and returns err wrapped as an evaluation error.
func report(ctx context.Context, src string, err error) *Error {
	var le *lang.Error
	if errors.As(err, &le) {
		_, _ = fmt.Fprint(streamsFrom(ctx).Err, le.Diagnostic(src))
	}

	return ErrEvaluate.Wrap(err)
}
