package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetricsRegistersInstruments(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.TurnDuration.Record(ctx, 1.5)
	m.RecordProviderRequest(ctx, "openai", "llm", "ok")
	m.RecordProviderError(ctx, "openai", "llm")
	m.RecordEvaluation(ctx, "heuristic")
	m.ActiveSessions.Add(ctx, 1)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	got := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != meterName {
			t.Errorf("scope = %q, want %q", sm.Scope.Name, meterName)
		}
		for _, metric := range sm.Metrics {
			got[metric.Name] = true
		}
	}

	want := []string{
		"candidly.turn.duration",
		"candidly.provider.requests",
		"candidly.provider.errors",
		"candidly.evaluations",
		"candidly.active_sessions",
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("metric %q not collected", name)
		}
	}
}

func TestDefaultMetricsIsSingleton(t *testing.T) {
	t.Parallel()

	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned distinct instances")
	}
}
