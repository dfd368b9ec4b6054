package lang

import (
	"context"
	"log/slog"
)

// document reads a file as a deferred buffer.
func document(ctx context.Context, s *Scope, args []Value) (Value, error) {
	p := args[0].AsString()

	return Defer(ctx, func(ctx context.Context) (Value, error) {
		ctx, span := s.startSpan(ctx, spanDocument, attrPath.String(s.Path(p)))

		data, err := s.ReadFile(ctx, p)

		endSpan(span, err)

		if err != nil {
			return Value{}, err
		}

		return Buffer(data), nil
	}), nil
}

// include reads and decodes a structured document as a deferred value,
// expanding the expression markers in its string leaves.
func include(ctx context.Context, s *Scope, args []Value) (Value, error) {
	child, err := s.nested()
	if err != nil {
		return Value{}, err
	}

	p := args[0].AsString()

	return Defer(ctx, func(ctx context.Context) (Value, error) {
		ctx, span := child.startSpan(ctx, spanInclude, attrPath.String(child.Path(p)))

		v, err := child.include(ctx, p)

		endSpan(span, err)

		return v, err
	}), nil
}

func (s *Scope) include(ctx context.Context, p string) (Value, error) {
	data, err := s.ReadFile(ctx, p)
	if err != nil {
		return Value{}, err
	}

	doc, err := s.Decode(s.Path(p), data)
	if err != nil {
		return Value{}, err
	}

	s.logger.TraceContext(ctx, "include",
		slog.String("eval_id", s.id),
		slog.String("path", s.Path(p)),
		slog.Int("depth", s.depth))

	expanded, err := s.expand(ctx, doc)
	if err != nil {
		return Value{}, err
	}

	return DeepResolve(ctx, expanded)
}

// exists reports whether a file exists.
func exists(_ context.Context, s *Scope, args []Value) (Value, error) {
	return Bool(s.Exists(args[0].AsString())), nil
}
