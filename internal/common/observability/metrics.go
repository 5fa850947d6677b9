package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	batchCounter  otelmetric.Int64Counter
	batchDuration otelmetric.Float64Histogram
	fetchDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	batchCounter, _ := meter.Int64Counter(
		"batches.processed",
		otelmetric.WithDescription("Number of analysis batches processed"),
	)

	batchDuration, _ := meter.Float64Histogram(
		"batches.duration",
		otelmetric.WithDescription("Analysis batch duration"),
		otelmetric.WithUnit("ms"),
	)

	fetchDuration, _ := meter.Float64Histogram(
		"fetch.duration",
		otelmetric.WithDescription("Per-source fetch duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		batchCounter:  batchCounter,
		batchDuration: batchDuration,
		fetchDuration: fetchDuration,
	}
}

func (o *Observability) RecordBatch(ctx context.Context, duration time.Duration, status string) {
	if o.batchCounter != nil {
		o.batchCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
	if o.batchDuration != nil {
		o.batchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordFetch(ctx context.Context, source string, duration time.Duration, status string) {
	if o.fetchDuration != nil {
		o.fetchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
