package lang

import (
	"context"
	"encoding/hex"
	"maps"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// Private singleton cache.
//
//nolint:gochecknoglobals
var (
	builtinOnce     sync.Once
	builtinRegistry Registry
)

// builtins returns the process-wide registry of built-in functions.
// Callers must not modify it; use [Registry.Overlay].
func builtins() Registry {
	builtinOnce.Do(func() {
		builtinRegistry = Registry{
			"toUpperCase": {Arguments: []Kind{KindString}, Apply: toUpperCase},
			"toLowerCase": {Arguments: []Kind{KindString}, Apply: toLowerCase},
			"substring": {
				Arguments: []Kind{KindString, KindNumber, KindNumber},
				Optional:  1,
				Apply:     substring,
			},
			"replace": {
				Arguments: []Kind{KindString, KindString, KindString},
				Apply:     replace,
			},
			"length":     {Arguments: []Kind{KindAny}, Apply: length},
			"first":      {Arguments: []Kind{KindAny}, Variadic: true, Apply: first},
			"split":      {Arguments: []Kind{KindString, KindString}, Apply: split},
			"join":       {Arguments: []Kind{KindArray, KindString}, Apply: join},
			"number":     {Arguments: []Kind{KindString}, Apply: number},
			"string":     {Arguments: []Kind{KindAny}, Apply: toString},
			"encrypt":    {Arguments: []Kind{KindString, KindString}, Apply: encrypt},
			"decrypt":    {Arguments: []Kind{KindString, KindString}, Apply: decrypt},
			"env":        {Arguments: []Kind{KindString}, Apply: env},
			"pathPrefix": {Arguments: []Kind{KindString, KindString}, Variadic: true, Apply: pathPrefix},
			"document":   {Arguments: []Kind{KindString}, Apply: document},
			"include":    {Arguments: []Kind{KindString}, Apply: include},
			"exists":     {Arguments: []Kind{KindString}, Apply: exists},
		}
	})

	return builtinRegistry
}

// Builtins returns a copy of the built-in function registry.
// This is useful for code completion and introspection.
func Builtins() Registry {
	return maps.Clone(builtins())
}

// ---------------------------------------------------------------------------
// Text functions
// ---------------------------------------------------------------------------

func toUpperCase(_ context.Context, _ *Scope, args []Value) (Value, error) {
	return String(strings.ToUpper(args[0].AsString())), nil
}

func toLowerCase(_ context.Context, _ *Scope, args []Value) (Value, error) {
	return String(strings.ToLower(args[0].AsString())), nil
}

// substring returns the runes of text in [start, end). Both bounds are
// truncated and clamped to the text; they are swapped when start > end.
// The end defaults to the length of the text.
func substring(_ context.Context, _ *Scope, args []Value) (Value, error) {
	runes := []rune(args[0].AsString())

	start := clampIndex(args[1].AsNumber(), len(runes))
	end := len(runes)

	if len(args) > 2 {
		end = clampIndex(args[2].AsNumber(), len(runes))
	}

	if start > end {
		start, end = end, start
	}

	return String(string(runes[start:end])), nil
}

func clampIndex(n float64, size int) int {
	switch {
	case math.IsNaN(n) || n < 0:
		return 0

	case n > float64(size):
		return size

	default:
		return int(n)
	}
}

// replace replaces the first occurrence of pattern in text.
func replace(_ context.Context, _ *Scope, args []Value) (Value, error) {
	text, pattern, replacement := args[0].AsString(), args[1].AsString(), args[2].AsString()

	return String(strings.Replace(text, pattern, replacement, 1)), nil
}

func split(_ context.Context, _ *Scope, args []Value) (Value, error) {
	parts := strings.Split(args[0].AsString(), args[1].AsString())

	elems := make([]Value, len(parts))
	for i, p := range parts {
		elems[i] = String(p)
	}

	return Array(elems...), nil
}

// join concatenates the textual representations of the elements of an array
// separated by a delimiter. Null elements are empty.
func join(ctx context.Context, _ *Scope, args []Value) (Value, error) {
	elems, err := resolveAll(ctx, args[0].AsArray())
	if err != nil {
		return Value{}, err
	}

	parts := make([]string, len(elems))
	for i, e := range elems {
		if e.kind != KindNull {
			parts[i] = e.String()
		}
	}

	return String(strings.Join(parts, args[1].AsString())), nil
}

// number parses trimmed decimal text. Empty text is 0; text that does not
// parse is NaN.
func number(_ context.Context, _ *Scope, args []Value) (Value, error) {
	text := strings.TrimSpace(args[0].AsString())
	if text == "" {
		return Number(0), nil
	}

	switch text {
	case "Infinity", "+Infinity":
		return Number(math.Inf(1)), nil

	case "-Infinity":
		return Number(math.Inf(-1)), nil
	}

	n, err := strconv.ParseFloat(text, 64)
	if err != nil || strings.ContainsAny(text, "_iInN") {
		return Number(math.NaN()), nil
	}

	return Number(n), nil
}

func toString(ctx context.Context, _ *Scope, args []Value) (Value, error) {
	text, err := Text(ctx, args[0])
	if err != nil {
		return Value{}, err
	}

	return String(text), nil
}

// ---------------------------------------------------------------------------
// Collection functions
// ---------------------------------------------------------------------------

// length returns the rune count of text, the element count of an array, or
// the byte count of a buffer.
func length(_ context.Context, _ *Scope, args []Value) (Value, error) {
	switch v := args[0]; v.kind {
	case KindString:
		return Number(float64(utf8.RuneCountInString(v.AsString()))), nil

	case KindArray:
		return Number(float64(len(v.AsArray()))), nil

	case KindBuffer:
		return Number(float64(len(v.AsBuffer()))), nil

	default:
		return Value{}, wrongArgumentType(Position{}, KindArray, v.kind, "length")
	}
}

func first(_ context.Context, _ *Scope, args []Value) (Value, error) {
	return args[0], nil
}

// ---------------------------------------------------------------------------
// Cipher functions
// ---------------------------------------------------------------------------

// encrypt returns the hex-encoded ciphertext of plaintext under key.
func encrypt(_ context.Context, s *Scope, args []Value) (Value, error) {
	key, plaintext := args[0].AsString(), args[1].AsString()

	sealed, err := s.cipher.Encrypt([]byte(key), []byte(plaintext))
	if err != nil {
		return Value{}, err
	}

	return String(hex.EncodeToString(sealed)), nil
}

// decrypt inverts encrypt.
func decrypt(_ context.Context, s *Scope, args []Value) (Value, error) {
	key, text := args[0].AsString(), args[1].AsString()

	sealed, err := hex.DecodeString(text)
	if err != nil {
		return Value{}, err
	}

	plaintext, err := s.cipher.Decrypt([]byte(key), sealed)
	if err != nil {
		return Value{}, err
	}

	return String(string(plaintext)), nil
}

// ---------------------------------------------------------------------------
// Host environment functions
// ---------------------------------------------------------------------------

// env returns the value of an environment variable, or null when unset.
func env(_ context.Context, s *Scope, args []Value) (Value, error) {
	v, ok := s.Getenv(args[0].AsString())
	if !ok {
		return Null(), nil
	}

	return String(v), nil
}

// pathPrefix prepends items to a PATH-like list, removing duplicates.
func pathPrefix(_ context.Context, _ *Scope, args []Value) (Value, error) {
	prefix := make([]string, len(args)-1)
	for i, a := range args[1:] {
		prefix[i] = a.AsString()
	}

	return String(mungPrefix(args[0].AsString(), prefix...)), nil
}
