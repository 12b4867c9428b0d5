// Package metrics provides Prometheus metrics for Mnemosyne components.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var registerOnce sync.Once

const (
	// Namespace is the Prometheus namespace for all Mnemosyne metrics.
	Namespace = "mnemosyne"

	// Subsystem constants for metric organization.
	SubsystemAPI        = "api"
	SubsystemCheckpoint = "checkpoint"
	SubsystemRetention  = "retention"
)

// Label constants for consistent labeling across metrics.
const (
	LabelEndpoint = "endpoint"
	LabelMethod   = "method"
	LabelStatus   = "status"
	LabelResult   = "result"
	LabelKind     = "kind"
)

var (
	// Checkpoint metrics

	// CheckpointLoadsTotal counts checkpoint load attempts by result (hit, miss, error).
	CheckpointLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemCheckpoint,
			Name:      "loads_total",
			Help:      "Total number of checkpoint load attempts",
		},
		[]string{LabelResult},
	)

	// CheckpointSavesTotal counts checkpoint writes by kind (throttled, forced).
	CheckpointSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemCheckpoint,
			Name:      "saves_total",
			Help:      "Total number of checkpoint writes",
		},
		[]string{LabelKind},
	)

	// CheckpointSaveErrorsTotal counts failed checkpoint writes.
	CheckpointSaveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemCheckpoint,
			Name:      "save_errors_total",
			Help:      "Total number of failed checkpoint writes",
		},
	)

	// CheckpointCompletionsTotal counts writes that marked content completed.
	CheckpointCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemCheckpoint,
			Name:      "completions_total",
			Help:      "Total number of writes that marked content completed",
		},
	)

	// Retention metrics

	// RetentionPurgedTotal counts checkpoints removed by the retention sweeper.
	RetentionPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemRetention,
			Name:      "purged_total",
			Help:      "Total number of checkpoints removed by the retention sweeper",
		},
	)

	// RetentionSweepsTotal counts retention sweeps by result (ok, error).
	RetentionSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemRetention,
			Name:      "sweeps_total",
			Help:      "Total number of retention sweeps",
		},
		[]string{LabelResult},
	)

	// API metrics

	// APIRequestsTotal counts the total number of API requests.
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{LabelEndpoint, LabelMethod, LabelStatus},
	)

	// APIRequestDuration tracks the duration of API requests.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{LabelEndpoint, LabelMethod},
	)

	// APIRequestSize tracks the size of API request bodies.
	APIRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "request_size_bytes",
			Help:      "Size of API request bodies in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6), // 100B to 10MB
		},
		[]string{LabelEndpoint, LabelMethod},
	)

	// APIResponseSize tracks the size of API response bodies.
	APIResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "response_size_bytes",
			Help:      "Size of API response bodies in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6), // 100B to 10MB
		},
		[]string{LabelEndpoint, LabelMethod},
	)
)

// allMetrics lists every collector for bulk registration.
var allMetrics = []prometheus.Collector{
	CheckpointLoadsTotal,
	CheckpointSavesTotal,
	CheckpointSaveErrorsTotal,
	CheckpointCompletionsTotal,
	RetentionPurgedTotal,
	RetentionSweepsTotal,
	APIRequestsTotal,
	APIRequestDuration,
	APIRequestSize,
	APIResponseSize,
}

// Register registers all Mnemosyne metrics with the default registry.
// Safe to call multiple times.
func Register() {
	registerOnce.Do(func() {
		for _, m := range allMetrics {
			prometheus.MustRegister(m)
		}
	})
}

// RegisterWith registers all Mnemosyne metrics with the given registry.
func RegisterWith(reg prometheus.Registerer) {
	for _, m := range allMetrics {
		reg.MustRegister(m)
	}
}

// NewRegistry creates a new Prometheus registry with all Mnemosyne metrics
// and standard Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	RegisterWith(reg)

	return reg
}
