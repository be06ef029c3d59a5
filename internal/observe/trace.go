package observe

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// scopeName identifies this module's instrumentation scope.
const scopeName = "github.com/candidly-dev/candidly"

// StartSpan starts a span on the module tracer obtained from the global
// provider. The caller must End the returned span.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(scopeName).Start(ctx, name, opts...)
}

// MarkSpanStatus sets the span status from an HTTP response code. Only 5xx
// marks the span as an error; 4xx is a client problem and leaves the status
// unset, following OTel server-span conventions.
func MarkSpanStatus(span trace.Span, httpStatus int) {
	if httpStatus >= 500 {
		span.SetStatus(codes.Error, http.StatusText(httpStatus))
	}
}

// CorrelationID returns the trace ID of the current span, or "" when the
// context carries no recording span. Handlers echo it back to clients so a
// support request can be matched to server traces.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger returns the default slog logger annotated with the current trace ID
// when one is present.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if id := CorrelationID(ctx); id != "" {
		l = l.With(slog.String("trace_id", id))
	}
	return l
}
