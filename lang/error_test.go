package lang

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Diagnostic(t *testing.T) {
	src := "1 +\n  nope(2)"

	_, err := Eval(t.Context(), src)
	require.Error(t, err)

	var le *Error
	require.True(t, errors.As(err, &le))

	want := "2,2: Unknown function \"nope\"\n" +
		"  2 |   nope(2)\n" +
		"        ^\n"
	assert.Equal(t, want, le.Diagnostic(src))
}

func TestError_IsAndKind(t *testing.T) {
	err := ErrIO.Wrap(errors.New("disk")).With(slog.String("path", "x"))

	assert.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.Same(t, ErrIO, err.Kind())
	assert.Equal(t, "I/O error: disk", err.Error())

	positioned := err.at(Position{Line: 3, Column: 1})
	assert.Equal(t, "3,1: I/O error: disk", positioned.Error())
	assert.ErrorIs(t, positioned, ErrIO)
}

func TestError_LogValue(t *testing.T) {
	_, err := Eval(t.Context(), "toUpperCase(1)")
	require.Error(t, err)

	var le *Error
	require.True(t, errors.As(err, &le))

	attrs := map[string]string{}
	for _, a := range le.LogValue().Group() {
		attrs[a.Key] = a.Value.String()
	}

	assert.Equal(t, "wrong argument type", attrs["kind"])
	assert.Equal(t, "1,0", attrs["pos"])
	assert.Equal(t, "string", attrs["expected"])
	assert.Equal(t, "number", attrs["actual"])
}

func TestWrapError(t *testing.T) {
	plain := errors.New("plain")
	assert.ErrorIs(t, WrapError(plain), plain)

	le := ErrSyntax.At(Position{Line: 1}, "bad")
	assert.Same(t, le, WrapError(le))
}
