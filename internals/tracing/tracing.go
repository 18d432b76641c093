// Package tracing wires platform spans to an OTLP-HTTP collector. Until a
// collector is configured, callers get a noop tracer that costs nothing.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cogniolab/hybrid/internals/version"
)

const scopeName = "github.com/cogniolab/hybrid"

// Span names emitted by the orchestrator.
const (
	SpanRun      = "hybrid.run"
	SpanWorkflow = "hybrid.workflow"
	SpanStage    = "hybrid.stage"
	SpanBackend  = "hybrid.backend"
)

// Attribute keys attached to platform spans.
const (
	AttrTaskID    = "hybrid.task_id"
	AttrTaskType  = "hybrid.task_type"
	AttrBackend   = "hybrid.backend"
	AttrStage     = "hybrid.stage"
	AttrStatus    = "hybrid.status"
	AttrGuardrail = "hybrid.guardrail"
)

// Provider wraps the configured tracer provider, if any.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Noop returns a provider whose spans go nowhere.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(scopeName)}
}

// New connects span export to an OTLP-HTTP collector at endpoint
// (host:port, no scheme) and installs the provider globally.
func New(ctx context.Context, endpoint string) (*Provider, error) {
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName("hybridd"),
		semconv.ServiceVersion(version.Version()),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return &Provider{provider: provider, tracer: provider.Tracer(scopeName)}, nil
}

func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes buffered spans. Safe on a noop provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
