package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/file"
)

// Predefined errors (sentinel values).
//
// Every error returned by this package is an [*Error] whose kind is one of
// these sentinels, so callers may test with [errors.Is].
var (
	ErrLex                  = NewError("lex error")
	ErrSyntax               = NewError("syntax error")
	ErrUnresolvedIdentifier = NewError("unresolved identifier")
	ErrUnknownFunction      = NewError("unknown function")
	ErrMissingArgument      = NewError("missing argument")
	ErrWrongArgumentType    = NewError("wrong argument type")
	ErrIO                   = NewError("I/O error")
	ErrDecode               = NewError("decode error")
	ErrCall                 = NewError("function call failed")
	ErrMaxDepthExceeded     = NewError("maximum include depth exceeded")
)

// Error represents an error with a source position and optional structured
// logging attributes. It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind  *Error      // Sentinel this error is an instance of (nil for sentinels)
	msg   string      // Kind-specific message
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	Pos   Position
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// At returns an instance of the sentinel e positioned at pos with a
// kind-specific message.
func (e *Error) At(pos Position, format string, args ...any) *Error {
	return &Error{
		kind:  e.sentinel(),
		msg:   fmt.Sprintf(format, args...),
		attrs: e.attrs,
		Pos:   pos,
	}
}

// at returns a copy of e positioned at pos.
func (e *Error) at(pos Position) *Error {
	return &Error{
		kind:  e.sentinel(),
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs,
		Pos:   pos,
	}
}

// Error implements the error interface.
//
// Positioned errors are formatted as "<line>,<column>: <msg>", followed by
// ": <cause>" when a cause is wrapped.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	msg := strings.Join(part, ": ")

	if e.Pos.Line == 0 {
		return msg
	}

	return strconv.Itoa(e.Pos.Line) + "," + strconv.Itoa(e.Pos.Column) + ": " + msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was created from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.kind != nil && e.kind == t)
}

// Kind returns the sentinel this error is an instance of.
func (e *Error) Kind() *Error { return e.sentinel() }

func (e *Error) sentinel() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if kind := e.sentinel(); kind != e {
		attrs = append(attrs, slog.String("kind", kind.msg))
	}

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.Pos.Line > 0 {
		attrs = append(attrs, slog.String("pos", e.Pos.String()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		kind:  e.sentinel(),
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		Pos:   e.Pos,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		kind:  e.sentinel(),
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		Pos:   e.Pos,
	}
}

// Diagnostic formats the error with the offending source line and a caret
// marking its column:
//
//	1,2: Unknown function "nope"
//	  1 | x + nope()
//	          ^
func (e *Error) Diagnostic(source string) string {
	var buf strings.Builder

	buf.WriteString(e.Error())
	buf.WriteByte('\n')

	line, ok := file.NewSource(source).Snippet(e.Pos.Line)
	if !ok || e.Pos.Line == 0 {
		return buf.String()
	}

	num := strconv.Itoa(e.Pos.Line)

	buf.WriteString("  " + num + " | " + line + "\n")
	// 2 leading spaces + " | " (3 chars)
	buf.WriteString(strings.Repeat(" ", len(num)+5+e.Pos.Column) + "^\n")

	return buf.String()
}

func unresolvedIdentifier(pos Position, name string) *Error {
	return ErrUnresolvedIdentifier.At(pos, "Unresolved identifier %q", name)
}

func unknownFunction(pos Position, name string) *Error {
	return ErrUnknownFunction.At(pos, "Unknown function %q", name)
}

func missingArgument(pos Position, name string) *Error {
	return ErrMissingArgument.At(pos, "Missing argument %q", name)
}

func wrongArgumentType(pos Position, want, got Kind, name string) *Error {
	return ErrWrongArgumentType.
		At(pos, "Wrong argument type %s != %s %q", want, got, name).
		With(
			slog.String("expected", want.String()),
			slog.String("actual", got.String()),
		)
}
