// Package observe provides observability primitives for Candidly:
// OpenTelemetry metrics, tracing helpers, and HTTP middleware tying them
// together.
//
// Metrics are recorded through the OTel Metrics API and exported through a
// Prometheus bridge (see [InitProvider]) so they remain scrapeable on the
// standard /metrics endpoint. Tests should construct their own [Metrics] via
// [NewMetrics] with a private meter provider instead of the package-level
// [DefaultMetrics].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all Candidly metrics.
const meterName = "github.com/candidly-dev/candidly"

// Metrics holds the OTel metric instruments for the application. The
// underlying OTel types handle their own synchronisation.
type Metrics struct {
	// TurnDuration tracks the full submit-answer turn latency, from request
	// receipt to the next question being ready.
	TurnDuration metric.Float64Histogram

	// LLMDuration tracks completion-backend latency.
	LLMDuration metric.Float64Histogram

	// EvaluationDuration tracks answer-scoring latency.
	EvaluationDuration metric.Float64Histogram

	// EmbeddingDuration tracks embedding-backend latency.
	EmbeddingDuration metric.Float64Histogram

	// ProviderRequests counts AI backend calls. Attributes: provider, kind,
	// status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts AI backend failures. Attributes: provider, kind.
	ProviderErrors metric.Int64Counter

	// Evaluations counts scored answers. Attribute: scorer.
	Evaluations metric.Int64Counter

	// ActiveSessions tracks the number of live interview sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time.
	// Attributes: method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram boundaries (seconds). Interview turns are
// dominated by LLM calls, so the buckets stretch into the tens of seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates all instruments on the given [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.TurnDuration, "candidly.turn.duration", "Latency of a full submit-answer turn."},
		{&met.LLMDuration, "candidly.llm.duration", "Latency of completion backend calls."},
		{&met.EvaluationDuration, "candidly.evaluation.duration", "Latency of answer scoring."},
		{&met.EmbeddingDuration, "candidly.embedding.duration", "Latency of embedding backend calls."},
	}
	for _, h := range histograms {
		if *h.dst, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	if met.ProviderRequests, err = m.Int64Counter("candidly.provider.requests",
		metric.WithDescription("Total AI backend requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("candidly.provider.errors",
		metric.WithDescription("Total AI backend errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.Evaluations, err = m.Int64Counter("candidly.evaluations",
		metric.WithDescription("Total scored answers by scorer."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("candidly.active_sessions",
		metric.WithDescription("Number of live interview sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("candidly.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first call
// from the global meter provider. Panics if instrument creation fails, which
// cannot happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordProviderRequest increments the request counter with the standard
// attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordProviderError increments the error counter with the standard
// attribute set.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}

// RecordEvaluation counts a scored answer attributed to the scorer that
// produced it ("llm" or "heuristic").
func (m *Metrics) RecordEvaluation(ctx context.Context, scorer string) {
	m.Evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("scorer", scorer)))
}
