// Package otelinit sets up the global OpenTelemetry providers from the
// telemetry configuration. When no OTLP endpoint is configured, initialization
// is skipped and the default no-op providers stay in place.
package otelinit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	config "github.com/tigerroll/tidewrite/pkg/ingest/core/config"
	exception "github.com/tigerroll/tidewrite/pkg/ingest/support/util/exception"
	logger "github.com/tigerroll/tidewrite/pkg/ingest/support/util/logger"
)

const moduleName = "otelinit"

// Shutdown flushes and stops the configured providers.
type Shutdown func(ctx context.Context) error

// Setup configures the global TracerProvider and MeterProvider with OTLP
// exporters according to cfg. The returned Shutdown must be called on exit.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (Shutdown, error) {
	if cfg.OTLPEndpoint == "" {
		logger.Debugf("Telemetry: no OTLP endpoint configured, skipping OpenTelemetry setup.")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return nil, exception.NewIngestError(moduleName, "failed to build telemetry resource", err, false)
	}

	traceExporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	metricExporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	logger.Infof("Telemetry: OpenTelemetry initialized (endpoint: %s, protocol: %s).", cfg.OTLPEndpoint, cfg.OTLPProtocol)

	return func(ctx context.Context) error {
		var firstErr error
		if err := tp.Shutdown(ctx); err != nil {
			firstErr = err
		}
		if err := mp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}, nil
}

func newTraceExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch cfg.OTLPProtocol {
	case "grpc":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, exception.NewIngestError(moduleName, "failed to create OTLP gRPC trace exporter", err, false)
		}
		return exp, nil
	case "http":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, exception.NewIngestError(moduleName, "failed to create OTLP HTTP trace exporter", err, false)
		}
		return exp, nil
	default:
		return nil, exception.NewIngestError(moduleName,
			fmt.Sprintf("unsupported OTLP protocol '%s' (want 'grpc' or 'http')", cfg.OTLPProtocol), nil, false)
	}
}

func newMetricExporter(ctx context.Context, cfg config.TelemetryConfig) (sdkmetric.Exporter, error) {
	switch cfg.OTLPProtocol {
	case "grpc":
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, exception.NewIngestError(moduleName, "failed to create OTLP gRPC metric exporter", err, false)
		}
		return exp, nil
	case "http":
		exp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, exception.NewIngestError(moduleName, "failed to create OTLP HTTP metric exporter", err, false)
		}
		return exp, nil
	default:
		return nil, exception.NewIngestError(moduleName,
			fmt.Sprintf("unsupported OTLP protocol '%s' (want 'grpc' or 'http')", cfg.OTLPProtocol), nil, false)
	}
}
