package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Truthy reports whether a resolved value is truthy. Null, false, 0, NaN,
// the empty string and the empty array are falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull:
		return false

	case KindBoolean:
		return v.AsBool()

	case KindNumber:
		n := v.AsNumber()

		return n != 0 && !math.IsNaN(n)

	case KindString:
		return v.AsString() != ""

	case KindArray:
		return len(v.AsArray()) > 0

	default:
		return true
	}
}

// Equal reports whether a and b are structurally equal. Both are resolved
// deeply first; values of different kinds are never equal.
func Equal(ctx context.Context, a, b Value) (bool, error) {
	a, err := DeepResolve(ctx, a)
	if err != nil {
		return false, err
	}

	b, err = DeepResolve(ctx, b)
	if err != nil {
		return false, err
	}

	return equal(a, b), nil
}

func equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true

	case KindBoolean:
		return a.AsBool() == b.AsBool()

	case KindNumber:
		return a.AsNumber() == b.AsNumber()

	case KindString:
		return a.AsString() == b.AsString()

	case KindBuffer:
		return bytes.Equal(a.AsBuffer(), b.AsBuffer())

	case KindArray:
		return slices.EqualFunc(a.AsArray(), b.AsArray(), equal)

	case KindObject:
		return maps.EqualFunc(a.AsObject(), b.AsObject(), equal)

	default:
		return false
	}
}

// String returns the textual representation of a resolved value.
//
// Numbers use the shortest decimal that round-trips, without a fraction when
// integral. Buffers are decoded as UTF-8, arrays join their elements with
// ",", and objects are rendered as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"

	case KindBoolean:
		return strconv.FormatBool(v.AsBool())

	case KindNumber:
		return formatNumber(v.AsNumber())

	case KindString:
		return v.AsString()

	case KindBuffer:
		return string(v.AsBuffer())

	case KindArray:
		a := v.AsArray()
		part := make([]string, len(a))

		for i, e := range a {
			// Nested nulls render empty inside a joined list.
			if e.kind != KindNull {
				part[i] = e.String()
			}
		}

		return strings.Join(part, ",")

	case KindObject:
		data, err := json.Marshal(jsonSafe(v.Native()))
		if err != nil {
			return fmt.Sprint(v.Native())
		}

		return string(data)

	default:
		return "[" + v.kind.String() + "]"
	}
}

// Text returns the textual representation of v after resolving it deeply.
func Text(ctx context.Context, v Value) (string, error) {
	v, err := DeepResolve(ctx, v)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

// Bytes returns the bytes of a resolved buffer, or the UTF-8 bytes of the
// textual representation of any other resolved value.
func (v Value) Bytes() []byte {
	if v.kind == KindBuffer {
		return v.AsBuffer()
	}

	return []byte(v.String())
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"

	case math.IsInf(n, 1):
		return "Infinity"

	case math.IsInf(n, -1):
		return "-Infinity"

	case n == 0:
		return "0"
	}

	if abs := math.Abs(n); abs >= 1e-7 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	// Exponents are written without zero padding: 1e-8, not 1e-08.
	mant, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")

	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// jsonSafe replaces non-finite numbers, which encoding/json rejects, with
// their textual representation.
func jsonSafe(x any) any {
	switch t := x.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return formatNumber(t)
		}

		return t

	case []byte:
		return string(t)

	case []any:
		for i, e := range t {
			t[i] = jsonSafe(e)
		}

		return t

	case map[string]any:
		for k, e := range t {
			t[k] = jsonSafe(e)
		}

		return t

	default:
		return x
	}
}

// add implements "+" over resolved operands.
func add(pos Position, a, b Value) (Value, error) {
	switch {
	case a.kind == KindBuffer || b.kind == KindBuffer:
		return Buffer(slices.Concat(a.Bytes(), b.Bytes())), nil

	case a.kind == KindString || b.kind == KindString:
		return String(a.String() + b.String()), nil

	case a.kind == KindNumber && b.kind == KindNumber:
		return Number(a.AsNumber() + b.AsNumber()), nil
	}

	return Value{}, operandType(pos, KindNumber, a, b, "+")
}

// arithmetic implements "-", "*" and "/" over resolved numbers.
func arithmetic(pos Position, op string, a, b Value) (Value, error) {
	if err := operandType(pos, KindNumber, a, b, op); err != nil {
		return Value{}, err
	}

	x, y := a.AsNumber(), b.AsNumber()

	switch op {
	case "-":
		return Number(x - y), nil

	case "*":
		return Number(x * y), nil

	default:
		return Number(x / y), nil
	}
}

// compare implements the relational operators over resolved numbers.
func compare(pos Position, op string, a, b Value) (Value, error) {
	if err := operandType(pos, KindNumber, a, b, op); err != nil {
		return Value{}, err
	}

	x, y := a.AsNumber(), b.AsNumber()

	switch op {
	case ">":
		return Bool(x > y), nil

	case ">=":
		return Bool(x >= y), nil

	case "<":
		return Bool(x < y), nil

	default:
		return Bool(x <= y), nil
	}
}

// operandType returns a WrongArgumentType error for the first operand that is
// not of kind want, or nil when both are.
func operandType(pos Position, want Kind, a, b Value, op string) error {
	switch {
	case a.kind != want:
		return wrongArgumentType(pos, want, a.kind, op)

	case b.kind != want:
		return wrongArgumentType(pos, want, b.kind, op)

	default:
		return nil
	}
}
