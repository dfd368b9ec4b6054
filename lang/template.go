package lang

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Expression markers embedded in the string leaves of included documents.
const (
	markerOpen  = "{{"
	markerClose = "}}"
)

// segment is a run of literal text or an embedded expression.
type segment struct {
	text   string
	isExpr bool
}

// splitTemplate splits text into literal and expression segments. An opening
// marker without a matching close is literal text.
func splitTemplate(text string) []segment {
	var segs []segment

	for text != "" {
		open := strings.Index(text, markerOpen)
		if open < 0 {
			break
		}

		end := strings.Index(text[open+len(markerOpen):], markerClose)
		if end < 0 {
			break
		}

		end += open + len(markerOpen)

		if open > 0 {
			segs = append(segs, segment{text: text[:open]})
		}

		segs = append(segs, segment{
			text:   strings.TrimSpace(text[open+len(markerOpen) : end]),
			isExpr: true,
		})

		text = text[end+len(markerClose):]
	}

	if text != "" {
		segs = append(segs, segment{text: text})
	}

	return segs
}

// expand replaces the expression markers in every string leaf of v. A leaf
// that is exactly one marker takes the value of its expression, of any kind;
// other markers are replaced by the textual representation of their values.
// Every embedded expression is evaluated before any is resolved.
func (s *Scope) expand(ctx context.Context, v Value) (Value, error) {
	switch v.kind {
	case KindString:
		return s.expandString(ctx, v.AsString())

	case KindArray:
		src := v.AsArray()
		elems := make([]Value, len(src))

		for i, e := range src {
			x, err := s.expand(ctx, e)
			if err != nil {
				return Value{}, err
			}

			elems[i] = x
		}

		return Array(elems...), nil

	case KindObject:
		src := v.AsObject()
		fields := make(map[string]Value, len(src))

		for k, e := range src {
			x, err := s.expand(ctx, e)
			if err != nil {
				return Value{}, err
			}

			fields[k] = x
		}

		return Object(fields), nil

	default:
		return v, nil
	}
}

func (s *Scope) expandString(ctx context.Context, text string) (Value, error) {
	segs := splitTemplate(text)

	if len(segs) == 1 && segs[0].isExpr {
		return s.evalMarker(ctx, segs[0].text)
	}

	vals := make([]Value, len(segs))
	hasExpr := false

	for i, seg := range segs {
		if !seg.isExpr {
			vals[i] = String(seg.text)

			continue
		}

		hasExpr = true

		v, err := s.evalMarker(ctx, seg.text)
		if err != nil {
			return Value{}, err
		}

		vals[i] = v
	}

	if !hasExpr {
		return String(text), nil
	}

	return Defer(ctx, func(ctx context.Context) (Value, error) {
		var buf strings.Builder

		for _, v := range vals {
			t, err := Text(ctx, v)
			if err != nil {
				return Value{}, err
			}

			buf.WriteString(t)
		}

		return String(buf.String()), nil
	}), nil
}

// evalMarker evaluates the expression of one marker, annotating failures
// with its source.
func (s *Scope) evalMarker(ctx context.Context, src string) (Value, error) {
	v, err := s.EvalString(ctx, src)

	var le *Error
	if errors.As(err, &le) {
		return Value{}, le.With(slog.String("template", src))
	}

	return v, err
}
