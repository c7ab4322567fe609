// Package telemetry wires OpenTelemetry tracing for pipeline runs. Each run is
// a root span and each stage a child span; exporters are chosen from config.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"subburn/internal/config"
)

// ServiceName identifies subburn spans.
const ServiceName = "subburn"

// Shutdown flushes pending spans and releases exporter resources.
type Shutdown func(context.Context) error

// Exporter names reported by Setup.
const (
	ExporterNone   = "none"
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// Setup installs the global tracer provider described by cfg. When tracing is
// disabled the global provider is a no-op and the returned Shutdown does
// nothing.
func Setup(ctx context.Context, cfg config.Telemetry, tracePath string, logger *slog.Logger) (Shutdown, string, error) {
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if !cfg.Enabled && endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, ExporterNone, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(ServiceName)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("telemetry resource: %w", err)
	}

	if endpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("otlp exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		if logger != nil {
			logger.Debug("telemetry initialized", slog.String("exporter", ExporterOTLP), slog.String("endpoint", endpoint))
		}
		return tp.Shutdown, ExporterOTLP, nil
	}

	if err := os.MkdirAll(filepath.Dir(tracePath), 0o755); err != nil {
		return nil, "", fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(tracePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		_ = file.Close()
		return nil, "", fmt.Errorf("stdout exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if logger != nil {
		logger.Debug("telemetry initialized", slog.String("exporter", ExporterStdout), slog.String("path", tracePath))
	}
	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), file.Close())
	}
	return shutdown, ExporterStdout, nil
}

// Tracer returns the tracer used for pipeline spans.
func Tracer() trace.Tracer {
	return otel.Tracer("subburn/pipeline")
}
