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
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ModelStats is what a finished training run reports.
type ModelStats struct {
	Source   string
	Records  int
	R2       float64
	MAE      float64
	Duration time.Duration
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider

	trainings     otelmetric.Int64Counter
	trainDuration otelmetric.Float64Histogram
	records       otelmetric.Int64Gauge
	r2            otelmetric.Float64Gauge
	mae           otelmetric.Float64Gauge
}

// New wires the otel meter provider to the prometheus registry. When
// tracing is enabled a tracer provider sampling at sampleRatio is installed
// globally so StartSpan picks it up.
func New(serviceName string, tracing bool, sampleRatio float64) *Observability {
	o := &Observability{}

	if tracing {
		o.tracerProvider = newTracerProvider(serviceName, sampleRatio)
		otel.SetTracerProvider(o.tracerProvider)
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(o.meterProvider)
	o.instrument(o.meterProvider.Meter(serviceName))
	return o
}

func (o *Observability) instrument(meter otelmetric.Meter) {
	o.trainings, _ = meter.Int64Counter(
		"forecast.model.trainings",
		otelmetric.WithDescription("Completed model training runs"),
	)
	o.trainDuration, _ = meter.Float64Histogram(
		"forecast.model.training.duration",
		otelmetric.WithDescription("Time spent encoding and fitting the forest"),
		otelmetric.WithUnit("ms"),
	)
	o.records, _ = meter.Int64Gauge(
		"forecast.dataset.records",
		otelmetric.WithDescription("Historical records the current model was trained on"),
	)
	o.r2, _ = meter.Float64Gauge(
		"forecast.model.r2",
		otelmetric.WithDescription("R2 of the current model on the held-out split"),
	)
	o.mae, _ = meter.Float64Gauge(
		"forecast.model.mae",
		otelmetric.WithDescription("Mean absolute error in kg on the held-out split"),
		otelmetric.WithUnit("kg"),
	)
}

// RecordModel publishes the stats of a finished training run. Safe to call
// when the exporter could not be created.
func (o *Observability) RecordModel(ctx context.Context, stats ModelStats) {
	if o.trainings == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("source", stats.Source))

	o.trainings.Add(ctx, 1, attrs)
	o.trainDuration.Record(ctx, float64(stats.Duration.Milliseconds()), attrs)
	o.records.Record(ctx, int64(stats.Records), attrs)
	o.r2.Record(ctx, stats.R2, attrs)
	o.mae.Record(ctx, stats.MAE, attrs)
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
