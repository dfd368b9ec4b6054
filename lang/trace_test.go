package lang

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, Option) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})

	return exporter, WithTracerProvider(tp)
}

func spanAttr(s tracetest.SpanStub, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes {
		if kv.Key == key {
			return kv.Value, true
		}
	}

	return attribute.Value{}, false
}

func TestTrace_EvaluateSpan(t *testing.T) {
	exporter, opt := setupTracingTest(t)

	_, err := Eval(t.Context(), "1 + 2", opt)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, spanEvaluate, s.Name)
	assert.Equal(t, codes.Ok, s.Status.Code)

	src, ok := spanAttr(s, attrSource)
	require.True(t, ok)
	assert.Equal(t, "1 + 2", src.AsString())

	kind, ok := spanAttr(s, attrKind)
	require.True(t, ok)
	assert.Equal(t, "number", kind.AsString())

	id, ok := spanAttr(s, attrEvalID)
	require.True(t, ok)
	assert.NotEmpty(t, id.AsString())
}

func TestTrace_EvaluateError(t *testing.T) {
	exporter, opt := setupTracingTest(t)

	_, err := Eval(t.Context(), "nope", opt)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, `1,0: Unresolved identifier "nope"`, spans[0].Status.Description)
	require.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestTrace_FileSpans(t *testing.T) {
	exporter, opt := setupTracingTest(t)

	fsys := fstest.MapFS{
		"doc.txt":   {Data: []byte("text")},
		"conf.yaml": {Data: []byte("k: v\n")},
	}

	_, err := Eval(t.Context(), "[document('doc.txt'), include('conf.yaml')]",
		opt, WithFileSystem(fsys))
	require.NoError(t, err)

	byName := map[string]tracetest.SpanStub{}
	for _, s := range exporter.GetSpans() {
		byName[s.Name] = s
	}

	require.Contains(t, byName, spanEvaluate)
	require.Contains(t, byName, spanDocument)
	require.Contains(t, byName, spanInclude)

	path, ok := spanAttr(byName[spanDocument], attrPath)
	require.True(t, ok)
	assert.Equal(t, "doc.txt", path.AsString())

	depth, ok := spanAttr(byName[spanInclude], attrDepth)
	require.True(t, ok)
	assert.Equal(t, int64(1), depth.AsInt64())

	// File spans share the evaluation's trace.
	assert.Equal(t,
		byName[spanEvaluate].SpanContext.TraceID(),
		byName[spanInclude].SpanContext.TraceID())
}
