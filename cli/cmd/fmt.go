package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/formula/lang"
)

// Fmt parses an expression and prints it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical expression source (default)."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
	AST    AST    `cmd:""                    help:"Format the syntax tree as an indented outline."`
}

// parseExpression reads and parses the expression of a fmt subcommand.
func parseExpression(ctx context.Context, expr []string, format string) (*lang.AST, error) {
	src, err := readExpression(ctx, expr)
	if err != nil {
		return nil, err
	}

	opts, err := evalOptions(ctx)
	if err != nil {
		return nil, err
	}

	ast, err := lang.ParseString(ctx, src, opts...)
	if err != nil {
		return nil, report(ctx, src, err).With(
			slog.String("command", "fmt"),
			slog.String("format", format),
		)
	}

	return ast, nil
}

// Native formats an expression as canonical source.
type Native struct {
	Expr []string `arg:"" help:"Expression to format; read from --source or stdin when omitted." name:"expr" optional:""`
}

// Run executes the fmt native command.
func (f *Native) Run(ctx context.Context) error {
	ast, err := parseExpression(ctx, f.Expr, "native")
	if err != nil {
		return err
	}

	if err := ast.Format(ctx, streamsFrom(ctx).Out); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// JSON formats the syntax tree of an expression as JSON.
type JSON struct {
	Indent int      `default:"2" help:"Indent width; 0 prints a single line." short:"i"`
	Expr   []string `arg:""      help:"Expression to format; read from --source or stdin when omitted." name:"expr" optional:""`
}

// Run executes the fmt json command.
func (j *JSON) Run(ctx context.Context) error {
	ast, err := parseExpression(ctx, j.Expr, "json")
	if err != nil {
		return err
	}

	if err := ast.FormatJSON(ctx, streamsFrom(ctx).Out, j.Indent); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("format", "json"))
	}

	return nil
}

// YAML formats the syntax tree of an expression as YAML.
type YAML struct {
	Indent int      `default:"2" help:"Indent width; 0 prints flow style." short:"i"`
	Expr   []string `arg:""      help:"Expression to format; read from --source or stdin when omitted." name:"expr" optional:""`
}

// Run executes the fmt yaml command.
func (y *YAML) Run(ctx context.Context) error {
	ast, err := parseExpression(ctx, y.Expr, "yaml")
	if err != nil {
		return err
	}

	if err := ast.FormatYAML(ctx, streamsFrom(ctx).Out, y.Indent); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("format", "yaml"))
	}

	return nil
}

// AST formats the syntax tree of an expression as an outline, one node per
// line with its position.
type AST struct {
	Indent int      `default:"2" help:"Indent width per level." short:"i"`
	Expr   []string `arg:""      help:"Expression to format; read from --source or stdin when omitted." name:"expr" optional:""`
}

// Run executes the fmt ast command.
func (a *AST) Run(ctx context.Context) error {
	ast, err := parseExpression(ctx, a.Expr, "ast")
	if err != nil {
		return err
	}

	if err := ast.FormatTree(ctx, streamsFrom(ctx).Out, a.Indent); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("format", "ast"))
	}

	return nil
}
