package lang

import (
	"context"
	"fmt"
	"sync"
)

// DeferredFunc computes the payload of a deferred value. Its result is
// wrapped with [ValueOf].
type DeferredFunc func(context.Context) (any, error)

// future is the pending computation behind a deferred value.
type future struct {
	run  func(context.Context) (Value, error)
	done chan struct{}
	val  Value
	err  error
	once sync.Once
}

// Defer starts fn in its own goroutine and returns a deferred value that
// yields fn's result. The goroutine observes ctx.
func Defer(ctx context.Context, fn func(context.Context) (Value, error)) Value {
	f := &future{run: fn, done: make(chan struct{})}
	f.start(ctx)

	return Value{kind: KindDeferred, raw: f}
}

// lazy returns a deferred value whose computation starts on first
// resolution, using the resolving context.
func lazy(fn DeferredFunc) Value {
	f := &future{
		run: func(ctx context.Context) (Value, error) {
			raw, err := fn(ctx)
			if err != nil {
				return Value{}, err
			}

			return ValueOf(raw), nil
		},
		done: make(chan struct{}),
	}

	return Value{kind: KindDeferred, raw: f}
}

func (f *future) start(ctx context.Context) {
	f.once.Do(func() {
		go func() {
			defer close(f.done)
			defer func() {
				if r := recover(); r != nil {
					f.err = ErrCall.Wrap(fmt.Errorf("panic: %v", r))
				}
			}()

			f.val, f.err = f.run(ctx)
		}()
	})
}

// Resolve waits for a deferred value and returns its concrete payload,
// looping while the payload is itself deferred. Concrete values are returned
// unchanged. Waiting stops with the cause of ctx if it ends first.
func (v Value) Resolve(ctx context.Context) (Value, error) {
	for v.kind == KindDeferred {
		f, _ := v.raw.(*future)
		f.start(ctx)

		select {
		case <-ctx.Done():
			return Value{}, context.Cause(ctx)

		case <-f.done:
		}

		if f.err != nil {
			return Value{}, f.err
		}

		v = f.val
	}

	return v, nil
}

// DeepResolve resolves v and every deferred value nested within its arrays
// and objects.
func DeepResolve(ctx context.Context, v Value) (Value, error) {
	v, err := v.Resolve(ctx)
	if err != nil {
		return Value{}, err
	}

	switch v.kind {
	case KindArray:
		src := v.AsArray()
		if !anyDeferred(src) {
			return v, nil
		}

		elems := make([]Value, len(src))

		for i, e := range src {
			if elems[i], err = DeepResolve(ctx, e); err != nil {
				return Value{}, err
			}
		}

		return Array(elems...), nil

	case KindObject:
		src := v.AsObject()
		fields := make(map[string]Value, len(src))

		for k, e := range src {
			if fields[k], err = DeepResolve(ctx, e); err != nil {
				return Value{}, err
			}
		}

		return Object(fields), nil

	default:
		return v, nil
	}
}

// anyDeferred reports whether any element of vs, at any depth, is deferred.
func anyDeferred(vs []Value) bool {
	for _, e := range vs {
		switch e.kind {
		case KindDeferred:
			return true

		case KindArray:
			if anyDeferred(e.AsArray()) {
				return true
			}

		case KindObject:
			for _, f := range e.AsObject() {
				if anyDeferred([]Value{f}) {
					return true
				}
			}
		}
	}

	return false
}

// resolveAll resolves every value in vs in order. Every pending computation
// behind vs is started before the first wait.
func resolveAll(ctx context.Context, vs []Value) ([]Value, error) {
	for _, v := range vs {
		if f, ok := v.raw.(*future); ok {
			f.start(ctx)
		}
	}

	out := make([]Value, len(vs))

	for i, v := range vs {
		r, err := v.Resolve(ctx)
		if err != nil {
			return nil, err
		}

		out[i] = r
	}

	return out, nil
}
