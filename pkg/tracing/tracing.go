// Package tracing configures the OpenTelemetry SDK.
//
// Spans are always recorded in-process so the placement path can be
// instrumented unconditionally; they are only exported when an OTLP/HTTP
// endpoint is configured.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	exportTimeout = 10 * time.Second
	maxQueueSize  = 2048
)

// SpanProcessor is re-exported so callers need not import the SDK.
type SpanProcessor = sdktrace.SpanProcessor

// Options control Setup.
type Options struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is an OTLP/HTTP collector, either host:port (plain HTTP) or a
	// full URL. Empty disables export.
	Endpoint string
	// Extra span processors, e.g. a tracetest.SpanRecorder in tests.
	Processors []SpanProcessor
}

// Setup builds a tracer provider, installs it and the W3C propagators
// globally, and returns it with a shutdown func that flushes pending spans.
func Setup(ctx context.Context, opts Options) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	// Schemaless so the merge adopts whatever schema the resolved SDK's
	// Default resource carries.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	}
	for _, p := range opts.Processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}

	var setupErr error
	if opts.Endpoint != "" {
		exp, err := otlptracehttp.New(ctx, endpointOption(opts.Endpoint)...)
		if err != nil {
			setupErr = fmt.Errorf("tracing: otlp exporter: %w", err)
		} else {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp,
				sdktrace.WithExportTimeout(exportTimeout),
				sdktrace.WithMaxQueueSize(maxQueueSize),
			)))
		}
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}
	return tp, shutdown, setupErr
}

func endpointOption(endpoint string) []otlptracehttp.Option {
	if strings.Contains(endpoint, "://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	}
	return []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	}
}
