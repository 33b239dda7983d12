// internal/telemetry/telemetry.go
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const metricExportInterval = 15 * time.Second

// ShutdownFunc flushes and stops a provider.
type ShutdownFunc func(context.Context) error

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values map to Info
// and report ok=false.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewLogger returns a JSON logger writing to w at the given level.
func NewLogger(w io.Writer, level string, serviceName string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})).
		With("service", serviceName)
}

// SetupTracing installs a global tracer provider for serviceName. Spans are
// exported over OTLP/HTTP when endpoint is set; otherwise they are recorded
// but not exported.
func SetupTracing(ctx context.Context, serviceName, endpoint string) (ShutdownFunc, error) {
	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if endpoint != "" {
		exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(endpointOption(endpoint), otlptracehttp.WithInsecure()))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to shut down tracer provider: %w", err)
		}
		return nil
	}, nil
}

// SetupMetrics installs a global meter provider for serviceName. Measurements
// are pushed over OTLP/HTTP when endpoint is set; otherwise they are
// aggregated in memory and dropped on shutdown.
func SetupMetrics(ctx context.Context, serviceName, endpoint string, readers ...sdkmetric.Reader) (ShutdownFunc, error) {
	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	if endpoint != "" {
		exporter, err := otlpmetrichttp.New(ctx, metricEndpointOption(endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to shut down meter provider: %w", err)
		}
		return nil
	}, nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func hasScheme(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

func metricEndpointOption(endpoint string) otlpmetrichttp.Option {
	if hasScheme(endpoint) {
		return otlpmetrichttp.WithEndpointURL(endpoint)
	}
	return otlpmetrichttp.WithEndpoint(endpoint)
}

func endpointOption(endpoint string) otlptracehttp.Option {
	if hasScheme(endpoint) {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}
