package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("role", "PPMP_PREPARER"),
		attribute.String("ppmp_id", "456"),
		attribute.String("entity_type", "ppmp_item"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "ppmp_id" {
			t.Fatalf("expected ppmp_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordMutation(context.Background(), "ppmp", "create")
	m.RecordExport(context.Background(), "pdf")
	m.RecordRateLimitDenied(context.Background(), "ADMIN", "/api/ppmp", "burst")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "ppmp"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordMutation(context.Background(), "ppmp", "submit")
}
