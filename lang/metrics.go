package lang

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric names.
const (
	metricEvaluations = "formula.evaluations"
	metricDuration    = "formula.evaluation.duration"
	metricCalls       = "formula.function.calls"
)

// Metric attribute keys.
const (
	attrSuccess  = attribute.Key("success")
	attrFunction = attribute.Key("function")
)

// instruments holds the metric instruments of one evaluation.
type instruments struct {
	evaluations metric.Int64Counter
	duration    metric.Float64Histogram
	calls       metric.Int64Counter
}

// newInstruments creates the instruments of the meter provider mp, or of the
// global provider if mp is nil. Instruments that cannot be created are
// replaced by no-op instruments.
func newInstruments(mp metric.MeterProvider) instruments {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(tracerName)

	var (
		in  instruments
		err error
	)

	in.evaluations, err = meter.Int64Counter(metricEvaluations,
		metric.WithDescription("Number of completed evaluations"),
	)
	if err != nil {
		in.evaluations = noop.Int64Counter{}
	}

	in.duration, err = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Evaluation latency until the result is available"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		in.duration = noop.Float64Histogram{}
	}

	in.calls, err = meter.Int64Counter(metricCalls,
		metric.WithDescription("Number of function calls"),
	)
	if err != nil {
		in.calls = noop.Int64Counter{}
	}

	return in
}

// recordEvaluation records a finished evaluation and its latency.
func (in instruments) recordEvaluation(ctx context.Context, start time.Time, err error) {
	attrs := metric.WithAttributes(attrSuccess.Bool(err == nil))

	in.evaluations.Add(ctx, 1, attrs)
	in.duration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), attrs)
}

// recordCall records one call of the named function.
func (in instruments) recordCall(ctx context.Context, name string) {
	in.calls.Add(ctx, 1, metric.WithAttributes(attrFunction.String(name)))
}
