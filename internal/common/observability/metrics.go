package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records search-round metrics through OpenTelemetry and
// exposes them on the default Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	roundCounter  otelmetric.Int64Counter
	roundDuration otelmetric.Float64Histogram
	resultCount   otelmetric.Int64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider}
	if o.roundCounter, err = meter.Int64Counter(
		"search.rounds",
		otelmetric.WithDescription("Completed search rounds by source and status"),
	); err != nil {
		return nil, err
	}
	if o.roundDuration, err = meter.Float64Histogram(
		"search.round.duration",
		otelmetric.WithDescription("Time from submission to cached result set"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.resultCount, err = meter.Int64Histogram(
		"search.round.results",
		otelmetric.WithDescription("Listings kept per search round"),
	); err != nil {
		return nil, err
	}
	return o, nil
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordRound(ctx context.Context, source, status string, duration time.Duration, results int) {
	if o == nil || o.roundCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	o.roundCounter.Add(ctx, 1, attrs)
	o.roundDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	o.resultCount.Record(ctx, int64(results), otelmetric.WithAttributes(attribute.String("source", source)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
