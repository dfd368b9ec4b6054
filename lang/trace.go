package lang

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope of spans emitted by this package.
const tracerName = "github.com/ardnew/formula/lang"

// Span names.
const (
	spanEvaluate = "formula.evaluate"
	spanDocument = "formula.document"
	spanInclude  = "formula.include"
)

// Span attribute keys.
const (
	attrEvalID = attribute.Key("eval.id")
	attrSource = attribute.Key("eval.source")
	attrDepth  = attribute.Key("eval.depth")
	attrPath   = attribute.Key("file.path")
	attrKind   = attribute.Key("result.kind")
)

// startSpan starts an internal span tagged with the evaluation ID.
func (s *Scope) startSpan(
	ctx context.Context,
	name string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name,
		trace.WithAttributes(append(attrs,
			attrEvalID.String(s.id),
			attrDepth.Int(s.depth),
		)...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// endSpan completes a span, recording err if non-nil.
func endSpan(span trace.Span, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}
