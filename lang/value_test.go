package lang

import (
	"context"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null(), "null"},
		{"true", Bool(true), "true"},
		{"integer", Number(42), "42"},
		{"fraction", Number(0.1 + 0.2), "0.30000000000000004"},
		{"large integer", Number(1234567), "1234567"},
		{"huge", Number(1e21), "1e+21"},
		{"tiny", Number(1.5e-8), "1.5e-8"},
		{"negative zero", Number(math.Copysign(0, -1)), "0"},
		{"nan", Number(math.NaN()), "NaN"},
		{"infinity", Number(math.Inf(-1)), "-Infinity"},
		{"buffer", Buffer([]byte("héllo")), "héllo"},
		{"array", Array(Number(1), Null(), String("x")), "1,,x"},
		{"nested array", Array(Array(Number(1), Number(2)), Number(3)), "1,2,3"},
		{"object", Object(map[string]Value{"a": Number(1)}), `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueOf(t *testing.T) {
	type point struct{ X, Y int }

	tests := []struct {
		name string
		raw  any
		kind Kind
	}{
		{"nil", nil, KindNull},
		{"int", 3, KindNumber},
		{"uint64", uint64(3), KindNumber},
		{"string", "s", KindString},
		{"bytes", []byte("b"), KindBuffer},
		{"strings", []string{"a"}, KindArray},
		{"ints", []int{1, 2}, KindArray},
		{"map", map[string]any{"a": 1}, KindObject},
		{"int keys", map[int]string{1: "a"}, KindObject},
		{"deferred", DeferredFunc(func(context.Context) (any, error) { return 1, nil }), KindDeferred},
		{"pointer", &[]int{1}, KindArray},
		{"struct", point{1, 2}, KindString},
		{"duration", time.Second, KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, ValueOf(tt.raw).Kind())
		})
	}

	assert.Equal(t, map[string]any{"1": "a"}, ValueOf(map[int]string{1: "a"}).Native())
}

func TestKind_Text(t *testing.T) {
	for _, k := range []Kind{KindNull, KindBoolean, KindNumber, KindString, KindArray, KindObject, KindBuffer, KindAny} {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var got Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("matrix")
	assert.Error(t, err)
}

func TestTruthy(t *testing.T) {
	falsy := []Value{Null(), Bool(false), Number(0), Number(math.NaN()), String(""), Array()}
	for _, v := range falsy {
		assert.False(t, Truthy(v), v.String())
	}

	truthy := []Value{Bool(true), Number(-1), String("0"), Array(Null()), Object(nil), Buffer(nil)}
	for _, v := range truthy {
		assert.True(t, Truthy(v), v.String())
	}
}

func TestEqual_Structural(t *testing.T) {
	ctx := t.Context()

	eq, err := Equal(ctx,
		Object(map[string]Value{"a": Array(Number(1), Buffer([]byte("x")))}),
		Object(map[string]Value{"a": Array(Number(1), Buffer([]byte("x")))}))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal(ctx, Number(1), String("1"))
	require.NoError(t, err)
	assert.False(t, eq)

	deferred := Defer(ctx, func(context.Context) (Value, error) { return Number(2), nil })

	eq, err = Equal(ctx, Array(deferred), Array(Number(2)))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestValue_Reader(t *testing.T) {
	data, err := io.ReadAll(Buffer([]byte("stream")).Reader())
	require.NoError(t, err)
	assert.Equal(t, "stream", string(data))
}

func TestDefer_Resolve(t *testing.T) {
	ctx := t.Context()

	inner := Defer(ctx, func(context.Context) (Value, error) { return String("done"), nil })
	outer := Defer(ctx, func(context.Context) (Value, error) { return inner, nil })

	got, err := outer.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", got.AsString())

	// Resolving again yields the same result.
	got, err = outer.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", got.AsString())
}

func TestDefer_Error(t *testing.T) {
	boom := errors.New("boom")

	v := Defer(t.Context(), func(context.Context) (Value, error) { return Value{}, boom })

	_, err := v.Resolve(t.Context())
	assert.ErrorIs(t, err, boom)
}

func TestDefer_Panic(t *testing.T) {
	v := Defer(t.Context(), func(context.Context) (Value, error) { panic("oops") })

	_, err := v.Resolve(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCall)
	assert.Contains(t, err.Error(), "panic: oops")
}

func TestLazy_StartsOnResolve(t *testing.T) {
	var started atomic.Bool

	v := ValueOf(func(context.Context) (any, error) {
		started.Store(true)

		return []any{1, 2}, nil
	})

	time.Sleep(5 * time.Millisecond)
	assert.False(t, started.Load())

	got, err := DeepResolve(t.Context(), Array(v))
	require.NoError(t, err)
	assert.True(t, started.Load())
	assert.Equal(t, []any{[]any{1.0, 2.0}}, got.Native())
}

func TestResolveAll_Concurrent(t *testing.T) {
	const n = 4

	var running, peak atomic.Int32

	vals := make([]Value, n)
	for i := range vals {
		vals[i] = ValueOf(DeferredFunc(func(context.Context) (any, error) {
			cur := running.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}

			time.Sleep(20 * time.Millisecond)
			running.Add(-1)

			return i, nil
		}))
	}

	out, err := resolveAll(t.Context(), vals)
	require.NoError(t, err)
	require.Len(t, out, n)

	for i, v := range out {
		assert.Equal(t, float64(i), v.AsNumber())
	}

	assert.Greater(t, peak.Load(), int32(1), "lazy values resolved together run concurrently")
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancelCause(t.Context())

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	v := Defer(ctx, func(context.Context) (Value, error) {
		<-block

		return Null(), nil
	})

	cause := errors.New("stopped")
	cancel(cause)

	_, err := v.Resolve(ctx)
	assert.ErrorIs(t, err, cause)
}
