package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
)

// Evaluate evaluates the AST and returns its value, which may be deferred.
//
// Options are applied after those given to [Parse] for this evaluation only,
// so one AST may be evaluated concurrently with different constants.
func (ast *AST) Evaluate(ctx context.Context, opts ...Option) (Value, error) {
	cfg := makeConfig(slices.Concat(ast.opts, opts)...)
	s := newScope(cfg)

	start := time.Now()

	ctx, span := s.startSpan(ctx, spanEvaluate, attrSource.String(ast.Source))

	s.logger.TraceContext(ctx, "evaluate start",
		slog.String("eval_id", s.id),
		slog.String("source", ast.Source))

	v, err := s.eval(ctx, ast.Root)
	if err != nil {
		s.logger.TraceContext(ctx, "evaluate failed",
			slog.String("eval_id", s.id),
			slog.Any("error", err))
	} else {
		span.SetAttributes(attrKind.String(v.Kind().String()))
		s.logger.TraceContext(ctx, "evaluate complete",
			slog.String("eval_id", s.id),
			slog.String("kind", v.Kind().String()))
	}

	endSpan(span, err)
	s.metrics.recordEvaluation(ctx, start, err)

	return v, err
}

// Eval parses and evaluates src, resolves the result deeply and converts it
// to a native Go value (see [Value.Native]).
func Eval(ctx context.Context, src any, opts ...Option) (any, error) {
	ast, err := Parse(ctx, src, opts...)
	if err != nil {
		return nil, err
	}

	v, err := ast.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	v, err = DeepResolve(ctx, v)
	if err != nil {
		return nil, err
	}

	return v.Native(), nil
}

// EvalString parses and evaluates src within the scope s, as embedded
// expressions of included documents are. It is intended for host functions
// that evaluate expressions of their own.
func (s *Scope) EvalString(ctx context.Context, src string) (Value, error) {
	ast, err := ParseString(ctx, src, WithLogger(s.logger))
	if err != nil {
		return Value{}, err
	}

	return s.eval(ctx, ast.Root)
}

// eval evaluates n without resolving its result.
func (s *Scope) eval(ctx context.Context, n Node) (Value, error) {
	if err := context.Cause(ctx); err != nil {
		return Value{}, err
	}

	switch n := n.(type) {
	case *Literal:
		return ValueOf(n.Value), nil

	case *Identifier:
		return s.evalIdentifier(ctx, n)

	case *ArrayLiteral:
		elems, err := s.evalAll(ctx, n.Elements)
		if err != nil {
			return Value{}, err
		}

		return Array(elems...), nil

	case *UnaryOp:
		return s.evalUnary(ctx, n)

	case *BinaryOp:
		return s.evalBinary(ctx, n)

	case *Ternary:
		cond, err := s.evalResolved(ctx, n.Cond)
		if err != nil {
			return Value{}, err
		}

		if Truthy(cond) {
			return s.eval(ctx, n.Then)
		}

		return s.eval(ctx, n.Else)

	case *MemberAccess:
		return s.evalMember(ctx, n)

	case *IndexAccess:
		return s.evalIndex(ctx, n)

	case *Call:
		return s.evalCall(ctx, n)

	default:
		return Value{}, ErrSyntax.At(n.Pos(), "Unsupported node %T", n)
	}
}

// evalResolved evaluates n and resolves its result.
func (s *Scope) evalResolved(ctx context.Context, n Node) (Value, error) {
	v, err := s.eval(ctx, n)
	if err != nil {
		return Value{}, err
	}

	return v.Resolve(ctx)
}

// evalAll evaluates every node in order without resolving, so that the
// computations behind independent siblings run concurrently.
func (s *Scope) evalAll(ctx context.Context, nodes []Node) ([]Value, error) {
	vals := make([]Value, len(nodes))

	for i, n := range nodes {
		v, err := s.eval(ctx, n)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func (s *Scope) evalIdentifier(ctx context.Context, n *Identifier) (Value, error) {
	v, rest, ok := s.lookup(n.Path)
	if !ok {
		return Value{}, unresolvedIdentifier(n.Start, n.Name())
	}

	for _, field := range rest {
		r, err := v.Resolve(ctx)
		if err != nil {
			return Value{}, err
		}

		if v, err = member(n.Start, r, field); err != nil {
			return Value{}, err
		}
	}

	return v, nil
}

func (s *Scope) evalUnary(ctx context.Context, n *UnaryOp) (Value, error) {
	v, err := s.evalResolved(ctx, n.Operand)
	if err != nil {
		return Value{}, err
	}

	if n.Op == "!" {
		return Bool(!Truthy(v)), nil
	}

	if v.kind != KindNumber {
		return Value{}, wrongArgumentType(n.Start, KindNumber, v.kind, n.Op)
	}

	return Number(-v.AsNumber()), nil
}

func (s *Scope) evalBinary(ctx context.Context, n *BinaryOp) (Value, error) {
	if n.Op == "||" || n.Op == "&&" {
		left, err := s.evalResolved(ctx, n.Left)
		if err != nil {
			return Value{}, err
		}

		// The left operand decides when it is truthy for "||" and falsy
		// for "&&"; the right subtree is then never evaluated.
		if Truthy(left) == (n.Op == "||") {
			return left, nil
		}

		return s.eval(ctx, n.Right)
	}

	operands, err := s.evalAll(ctx, []Node{n.Left, n.Right})
	if err != nil {
		return Value{}, err
	}

	if n.Op == "==" || n.Op == "!=" {
		eq, err := Equal(ctx, operands[0], operands[1])
		if err != nil {
			return Value{}, err
		}

		return Bool(eq == (n.Op == "==")), nil
	}

	operands, err = resolveAll(ctx, operands)
	if err != nil {
		return Value{}, err
	}

	a, b := operands[0], operands[1]

	switch n.Op {
	case "+":
		// Text of composite operands includes their nested deferred values.
		if a.kind == KindArray || a.kind == KindObject ||
			b.kind == KindArray || b.kind == KindObject {
			if a, err = DeepResolve(ctx, a); err != nil {
				return Value{}, err
			}

			if b, err = DeepResolve(ctx, b); err != nil {
				return Value{}, err
			}
		}

		return add(n.Start, a, b)

	case "-", "*", "/":
		return arithmetic(n.Start, n.Op, a, b)

	default:
		return compare(n.Start, n.Op, a, b)
	}
}

func (s *Scope) evalMember(ctx context.Context, n *MemberAccess) (Value, error) {
	base, err := s.evalResolved(ctx, n.Base)
	if err != nil {
		return Value{}, err
	}

	return member(n.Start, base, n.Field)
}

// member performs a soft lookup of field in a resolved base. Null bases yield
// null; bases other than objects are an error.
func member(pos Position, base Value, field string) (Value, error) {
	switch base.kind {
	case KindNull:
		return Null(), nil

	case KindObject:
		return base.Field(field), nil

	default:
		return Value{}, wrongArgumentType(pos, KindObject, base.kind, "."+field)
	}
}

func (s *Scope) evalIndex(ctx context.Context, n *IndexAccess) (Value, error) {
	vals, err := s.evalAll(ctx, []Node{n.Base, n.Index})
	if err != nil {
		return Value{}, err
	}

	if vals, err = resolveAll(ctx, vals); err != nil {
		return Value{}, err
	}

	base, index := vals[0], vals[1]

	switch {
	case base.kind == KindNull:
		return Null(), nil

	case base.kind == KindObject && index.kind == KindString:
		return base.Field(index.AsString()), nil

	case base.kind != KindArray:
		return Value{}, wrongArgumentType(n.Start, KindArray, base.kind, "[]")

	case index.kind != KindNumber:
		return Value{}, wrongArgumentType(n.Start, KindNumber, index.kind, "[]")
	}

	i := math.Trunc(index.AsNumber())
	if math.IsNaN(i) || i < 0 || i >= float64(len(base.AsArray())) {
		return Null(), nil
	}

	return base.Index(int(i)), nil
}

// callee returns the function called by n and its receiver, if any. A dotted
// name that is not registered is called in method form when its last segment
// is registered, e.g. s.toUpperCase() with constant s.
func (s *Scope) callee(n *Call) (Function, Node, string, bool) {
	if fn, ok := s.functions.Lookup(n.Name); ok || n.Receiver != nil {
		return fn, n.Receiver, n.Name, ok
	}

	dot := strings.LastIndexByte(n.Name, '.')
	if dot < 0 {
		return Function{}, nil, n.Name, false
	}

	name := n.Name[dot+1:]

	fn, ok := s.functions.Lookup(name)
	if !ok {
		return Function{}, nil, n.Name, false
	}

	recv := &Identifier{Path: strings.Split(n.Name[:dot], "."), Start: n.Start}

	return fn, recv, name, true
}

func (s *Scope) evalCall(ctx context.Context, n *Call) (Value, error) {
	fn, recv, name, ok := s.callee(n)
	if !ok {
		return Value{}, unknownFunction(n.Start, n.Name)
	}

	argNodes := n.Args
	if recv != nil {
		argNodes = append([]Node{recv}, n.Args...)
	}

	if len(argNodes) < fn.Required() {
		return Value{}, missingArgument(n.Start, name)
	}

	vals, err := s.evalAll(ctx, argNodes)
	if err != nil {
		return Value{}, err
	}

	args, err := resolveAll(ctx, vals)
	if err != nil {
		return Value{}, err
	}

	for i, arg := range args {
		if want, ok := fn.kindAt(i); ok && !want.accepts(arg.kind) {
			return Value{}, wrongArgumentType(n.Start, want, arg.kind, name)
		}
	}

	s.logger.TraceContext(ctx, "call",
		slog.String("eval_id", s.id),
		slog.String("function", name),
		slog.Int("arg_count", len(args)))

	s.metrics.recordCall(ctx, name)

	result, err := s.apply(ctx, fn, args)
	if err != nil {
		return Value{}, callError(err, n.Start, name)
	}

	if result.kind != KindDeferred {
		return result, nil
	}

	// Position failures that surface when the result is resolved.
	return Defer(ctx, func(ctx context.Context) (Value, error) {
		v, err := result.Resolve(ctx)
		if err != nil {
			return Value{}, callError(err, n.Start, name)
		}

		return v, nil
	}), nil
}

// apply calls fn, converting a panic into an error.
func (s *Scope) apply(ctx context.Context, fn Function, args []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Value{}, fmt.Errorf("panic: %v", r)
		}
	}()

	return fn.Apply(ctx, s, args)
}

// callError positions an error returned by the function name called at pos.
// Errors of this package without a position are placed at pos; other errors
// are wrapped in [ErrCall]. Context errors are returned unchanged.
func callError(err error, pos Position, name string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var le *Error
	if errors.As(err, &le) {
		if le.Pos.Line > 0 {
			return err
		}

		return le.at(pos)
	}

	return ErrCall.At(pos, "Call to %q failed", name).Wrap(err)
}
