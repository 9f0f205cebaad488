// Package telemetry installs OpenTelemetry tracer and meter providers that
// export to rotating files, so a terminal UI owning stdout is not disturbed.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "sdr"

// Telemetry holds the installed providers and their output files.
type Telemetry struct {
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	traces  *lumberjack.Logger
	metrics *lumberjack.Logger
}

type config struct {
	version  string
	interval time.Duration
}

// Option configures [Setup].
type Option func(*config)

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(v string) Option {
	return func(c *config) { c.version = v }
}

// WithInterval sets how often metrics are exported. Default is 10s.
func WithInterval(d time.Duration) Option {
	return func(c *config) { c.interval = d }
}

// Setup creates dir and installs global tracer and meter providers writing
// to traces.log and metrics.log inside it.
func Setup(ctx context.Context, dir string, opts ...Option) (*Telemetry, error) {
	cfg := config{version: "dev", interval: 10 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	t := &Telemetry{
		traces:  rotating(filepath.Join(dir, "traces.log")),
		metrics: rotating(filepath.Join(dir, "metrics.log")),
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(t.traces))
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	t.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(t.metrics))
	if err != nil {
		_ = t.tp.Shutdown(ctx)
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	t.mp = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			metricExporter,
			sdkmetric.WithInterval(cfg.interval),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(t.tp)
	otel.SetMeterProvider(t.mp)
	return t, nil
}

func rotating(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// Tracer returns a tracer from the installed provider.
func (t *Telemetry) Tracer(name string) trace.Tracer {
	return t.tp.Tracer(name)
}

// Meter returns a meter from the installed provider.
func (t *Telemetry) Meter(name string) metric.Meter {
	return t.mp.Meter(name)
}

// Shutdown flushes pending spans and metrics and closes the files.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.tp.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
	}
	if err := t.mp.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
	}
	if err := t.traces.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close trace file: %w", err))
	}
	if err := t.metrics.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close metric file: %w", err))
	}
	return errors.Join(errs...)
}
