package lang

import (
	"context"
	"maps"
	"slices"
)

// Function is a callable entry of a [Registry].
//
// Arguments declares the kind of each parameter. Optional is the number of
// trailing declared parameters that may be omitted; the zero value requires
// them all. A Variadic function accepts extra arguments, each checked against
// the last declared kind. Extra arguments to a non-variadic function are
// evaluated but not checked.
//
// Apply receives resolved arguments and may return a deferred value.
type Function struct {
	Apply     func(ctx context.Context, s *Scope, args []Value) (Value, error)
	Arguments []Kind
	Optional  int
	Variadic  bool
}

// Required returns the minimum number of arguments.
func (f Function) Required() int {
	return max(0, len(f.Arguments)-f.Optional)
}

// kindAt returns the declared kind of argument i.
func (f Function) kindAt(i int) (Kind, bool) {
	switch {
	case i < len(f.Arguments):
		return f.Arguments[i], true

	case f.Variadic && len(f.Arguments) > 0:
		return f.Arguments[len(f.Arguments)-1], true

	default:
		return KindAny, false
	}
}

// Func adapts a host function returning a raw value to a [Function] whose
// every declared argument is required. The result is wrapped with [ValueOf].
func Func(
	kinds []Kind,
	fn func(ctx context.Context, args []Value) (any, error),
) Function {
	return Function{
		Arguments: kinds,
		Apply: func(ctx context.Context, _ *Scope, args []Value) (Value, error) {
			raw, err := fn(ctx, args)
			if err != nil {
				return Value{}, err
			}

			return ValueOf(raw), nil
		},
	}
}

// Registry maps function names to functions.
type Registry map[string]Function

// Lookup returns the function registered under name.
func (r Registry) Lookup(name string) (Function, bool) {
	f, ok := r[name]

	return f, ok && f.Apply != nil
}

// Names returns the registered names in sorted order.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// Overlay returns a new registry containing r's entries replaced or extended
// by those of host. Neither input is modified.
func (r Registry) Overlay(host Registry) Registry {
	out := make(Registry, len(r)+len(host))

	maps.Copy(out, r)
	maps.Copy(out, host)

	return out
}
