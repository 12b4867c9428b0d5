package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("NewRegistry returned nil")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	// Should have Go runtime metrics plus our custom metrics
	if len(mfs) == 0 {
		t.Error("expected metrics to be registered, got none")
	}
}

func TestRegisterWith(t *testing.T) {
	reg := prometheus.NewRegistry()

	RegisterWith(reg)

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	expectedCount := 10
	if len(allMetrics) != expectedCount {
		t.Errorf("expected %d metrics in allMetrics, got %d", expectedCount, len(allMetrics))
	}
}

func TestMetricLabels(t *testing.T) {
	// Using the expected labels must not panic.
	CheckpointLoadsTotal.WithLabelValues("hit").Inc()
	CheckpointLoadsTotal.WithLabelValues("miss").Inc()
	CheckpointLoadsTotal.WithLabelValues("error").Inc()
	CheckpointSavesTotal.WithLabelValues("throttled").Inc()
	CheckpointSavesTotal.WithLabelValues("forced").Inc()
	RetentionSweepsTotal.WithLabelValues("ok").Inc()
	APIRequestsTotal.WithLabelValues("/api/v1/viewers/me/checkpoints", "GET", "200").Inc()
	APIRequestDuration.WithLabelValues("/api/v1/viewers/me/checkpoints", "GET").Observe(0.01)
}
