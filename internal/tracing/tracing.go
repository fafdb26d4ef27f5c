// Package tracing provides thin OpenTelemetry helpers for the outbound HTTP
// clients. The library publishes spans through the global tracer provider;
// exporter setup belongs to the host process.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "codeatlas/orchestrator"

// StartHTTPSpan starts a client span for an outbound HTTP request
func StartHTTPSpan(ctx context.Context, method, url string) (context.Context, oteltrace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, fmt.Sprintf("HTTP %s", method),
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
}

// StartSpan starts an internal span for a named orchestrator stage
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

// InjectTraceparent propagates the current span context on an outbound request
func InjectTraceparent(ctx context.Context, req *http.Request) {
	sc := oteltrace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	traceparent := fmt.Sprintf("00-%s-%s-%02x", sc.TraceID(), sc.SpanID(), sc.TraceFlags())
	req.Header.Set("traceparent", traceparent)
}
