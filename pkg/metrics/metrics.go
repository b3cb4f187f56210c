// Package metrics provides Prometheus metrics for the fitpipe pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion metrics
	recordsLoaded prometheus.Counter
	sourcesLoaded prometheus.Counter
	loadErrors    prometheus.Counter

	// Data quality metrics
	duplicatesDropped prometheus.Counter
	outOfRangeFlags   prometheus.Counter
	missingSlots      prometheus.Counter
	qualityScore      prometheus.Gauge

	// Feature engineering metrics
	featureVectors prometheus.Counter
	featureGaps    prometheus.Counter
	subjectsTotal  prometheus.Gauge
	stageLatency   *prometheus.HistogramVec

	// Scoring metrics
	predictions    *prometheus.CounterVec
	scoringSkipped prometheus.Counter
	anomaliesFound prometheus.Counter

	// Recommendation metrics
	recommendations prometheus.Counter

	// Worker metrics
	workerCount prometheus.Gauge
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithSubsystem sets the metric subsystem.
func WithSubsystem(sub string) Option {
	return func(m *Manager) {
		if sub != "" {
			m.subsystem = sub
		}
	}
}

// WithHistogramBuckets sets the latency histogram buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets a custom Prometheus registry.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fitpipe",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.recordsLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_loaded_total",
		Help:      "Total number of records produced by the loader",
	})

	m.sourcesLoaded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sources_loaded_total",
		Help:      "Total number of source batches loaded successfully",
	})

	m.loadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "load_errors_total",
		Help:      "Total number of source batches rejected by the loader",
	})

	m.duplicatesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicates_dropped_total",
		Help:      "Total number of duplicate records dropped by the validator",
	})

	m.outOfRangeFlags = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "out_of_range_total",
		Help:      "Total number of records flagged outside plausible ranges",
	})

	m.missingSlots = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missing_slots_total",
		Help:      "Total number of missing metric/time slots counted by the validator",
	})

	m.qualityScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "quality_score",
		Help:      "Quality score of the most recently validated dataset (0-100)",
	})

	m.featureVectors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_vectors_total",
		Help:      "Total number of feature vectors built",
	})

	m.featureGaps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_gaps_total",
		Help:      "Total number of features resolved via the missing-value sentinel",
	})

	m.subjectsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subjects",
		Help:      "Number of subjects in the most recent run",
	})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_latency_seconds",
		Help:      "Histogram of per-stage processing latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of predictions emitted, by model kind",
	}, []string{"model"})

	m.scoringSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_skipped_total",
		Help:      "Total number of feature vectors skipped during scoring",
	})

	m.anomaliesFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "anomalies_total",
		Help:      "Total number of records flagged anomalous",
	})

	m.recommendations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_total",
		Help:      "Total number of recommendations composed",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of per-subject workers in the most recent run",
	})
}

// Registry returns the registry holding the global pipeline metrics, for
// embedders that want to expose them.
func Registry() *prometheus.Registry { return customRegistry }

// Package-level recording helpers operating on the global manager.

func RecordRecordsLoaded(n int)     { globalManager.recordsLoaded.Add(float64(n)) }
func RecordSourceLoaded()           { globalManager.sourcesLoaded.Inc() }
func RecordLoadError()              { globalManager.loadErrors.Inc() }
func RecordDuplicatesDropped(n int) { globalManager.duplicatesDropped.Add(float64(n)) }
func RecordOutOfRange(n int)        { globalManager.outOfRangeFlags.Add(float64(n)) }
func RecordMissingSlots(n int)      { globalManager.missingSlots.Add(float64(n)) }
func UpdateQualityScore(s float64)  { globalManager.qualityScore.Set(s) }
func RecordFeatureVectors(n int)    { globalManager.featureVectors.Add(float64(n)) }
func RecordFeatureGaps(n int)       { globalManager.featureGaps.Add(float64(n)) }
func UpdateSubjects(n int)          { globalManager.subjectsTotal.Set(float64(n)) }
func RecordPredictions(model string, n int) {
	globalManager.predictions.WithLabelValues(model).Add(float64(n))
}
func RecordScoringSkipped(n int)  { globalManager.scoringSkipped.Add(float64(n)) }
func RecordAnomalies(n int)       { globalManager.anomaliesFound.Add(float64(n)) }
func RecordRecommendations(n int) { globalManager.recommendations.Add(float64(n)) }
func UpdateWorkerCount(n int)     { globalManager.workerCount.Set(float64(n)) }

// ObserveStageLatency records the latency of one pipeline stage in seconds.
func ObserveStageLatency(stage string, seconds float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(seconds)
}
