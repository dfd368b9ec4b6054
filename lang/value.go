package lang

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Kind identifies the concrete type of a [Value].
type Kind uint8

const (
	// KindNull is the absent value.
	KindNull Kind = iota

	// KindBoolean is true or false.
	KindBoolean

	// KindNumber is a float64.
	KindNumber

	// KindString is UTF-8 text.
	KindString

	// KindArray is an ordered sequence of values.
	KindArray

	// KindObject is a mapping of text to values.
	KindObject

	// KindBuffer is a byte buffer.
	KindBuffer

	// KindDeferred is a pending computation yielding one of the other kinds.
	KindDeferred

	// KindAny matches every kind in a function signature.
	KindAny
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"

	case KindBoolean:
		return "boolean"

	case KindNumber:
		return "number"

	case KindString:
		return "string"

	case KindArray:
		return "array"

	case KindObject:
		return "object"

	case KindBuffer:
		return "buffer"

	case KindDeferred:
		return "deferred"

	case KindAny:
		return "any"

	default:
		return "unknown"
	}
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k := KindNull; k <= KindAny; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}

	return KindNull, fmt.Errorf("unknown kind %q", name)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// accepts reports whether a parameter declared with kind k accepts a value of
// kind got.
func (k Kind) accepts(got Kind) bool {
	return k == KindAny || k == got
}

// Value is the universal result of evaluation.
//
// The zero Value is null. Values are immutable; arrays and objects must not
// be modified after construction.
type Value struct {
	raw  any
	kind Kind
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, raw: b} }

// Number returns a number value.
func Number(n float64) Value { return Value{kind: KindNumber, raw: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, raw: s} }

// Array returns an array value holding elems.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}

	return Value{kind: KindArray, raw: elems}
}

// Object returns an object value holding fields.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}

	return Value{kind: KindObject, raw: fields}
}

// Buffer returns a buffer value holding data.
func Buffer(data []byte) Value {
	if data == nil {
		data = []byte{}
	}

	return Value{kind: KindBuffer, raw: data}
}

// Kind returns the kind of v. Deferred values report [KindDeferred] until
// resolved.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v, or false.
func (v Value) AsBool() bool {
	b, _ := v.raw.(bool)

	return b
}

// AsNumber returns the number held by v, or 0.
func (v Value) AsNumber() float64 {
	n, _ := v.raw.(float64)

	return n
}

// AsString returns the text held by v, or "".
func (v Value) AsString() string {
	s, _ := v.raw.(string)

	return s
}

// AsArray returns the elements held by v, or nil.
func (v Value) AsArray() []Value {
	a, _ := v.raw.([]Value)

	return a
}

// AsObject returns the fields held by v, or nil.
func (v Value) AsObject() map[string]Value {
	o, _ := v.raw.(map[string]Value)

	return o
}

// AsBuffer returns the bytes held by v, or nil.
func (v Value) AsBuffer() []byte {
	b, _ := v.raw.([]byte)

	return b
}

// Reader returns a reader over the bytes of a buffer, or over the textual
// representation of any other resolved value.
func (v Value) Reader() io.Reader {
	if v.kind == KindBuffer {
		return bytes.NewReader(v.AsBuffer())
	}

	return strings.NewReader(v.String())
}

// Field performs a soft lookup of name in an object. It returns null when v
// is not an object or has no such field.
func (v Value) Field(name string) Value {
	if f, ok := v.AsObject()[name]; ok {
		return f
	}

	return Null()
}

// Index performs a soft lookup of element i in an array. It returns null
// when v is not an array or i is out of range.
func (v Value) Index(i int) Value {
	a := v.AsArray()
	if i < 0 || i >= len(a) {
		return Null()
	}

	return a[i]
}

// ValueOf wraps a host value without resolving nested deferred values.
//
// Go numeric types become numbers, slices and arrays become arrays, maps
// become objects with keys formatted by [fmt.Sprint], []byte becomes a
// buffer, and functions of type func(context.Context) (any, error) become
// deferred values started on first resolution. Other types are converted to
// their [fmt.Sprint] text.
func ValueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Value:
		if x == nil {
			return Null()
		}

		return *x
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case string:
		return String(x)
	case []byte:
		return Buffer(x)
	case []Value:
		return Array(x...)
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = ValueOf(e)
		}

		return Array(elems...)
	case []string:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = String(e)
		}

		return Array(elems...)
	case map[string]Value:
		return Object(maps.Clone(x))
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, e := range x {
			fields[k] = ValueOf(e)
		}

		return Object(fields)
	case map[any]any:
		fields := make(map[string]Value, len(x))
		for k, e := range x {
			fields[fmt.Sprint(k)] = ValueOf(e)
		}

		return Object(fields)
	case DeferredFunc:
		return lazy(x)
	case func(context.Context) (any, error):
		return lazy(DeferredFunc(x))
	case fmt.Stringer:
		return String(x.String())
	}

	return valueOfReflect(reflect.ValueOf(raw))
}

// valueOfReflect handles slices, arrays, maps and pointers of element types
// not covered by the fast path in [ValueOf].
func valueOfReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}

		return ValueOf(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			elems[i] = ValueOf(rv.Index(i).Interface())
		}

		return Array(elems...)

	case reflect.Map:
		fields := make(map[string]Value, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			fields[fmt.Sprint(iter.Key().Interface())] = ValueOf(iter.Value().Interface())
		}

		return Object(fields)

	case reflect.Bool:
		return Bool(rv.Bool())

	case reflect.String:
		return String(rv.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint()))

	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())

	default:
		return String(fmt.Sprint(rv.Interface()))
	}
}

// Native converts a resolved value to a native Go value: nil, bool, float64,
// string, []any, map[string]any or []byte. Nested deferred values that have
// not been resolved convert to nil; use [DeepResolve] first.
func (v Value) Native() any {
	switch v.kind {
	case KindBoolean, KindNumber, KindString:
		return v.raw

	case KindBuffer:
		return slices.Clone(v.AsBuffer())

	case KindArray:
		a := v.AsArray()
		out := make([]any, len(a))

		for i, e := range a {
			out[i] = e.Native()
		}

		return out

	case KindObject:
		o := v.AsObject()
		out := make(map[string]any, len(o))

		for k, e := range o {
			out[k] = e.Native()
		}

		return out

	default:
		return nil
	}
}
