// Package types contains common enumerations shared across the pipeline.
package types

import (
	"fmt"
	"strings"
)

// Metric identifies a tracked fitness measurement.
type Metric string

// Known metrics.
const (
	MetricSteps         Metric = "steps"
	MetricCalories      Metric = "calories"
	MetricHeartRate     Metric = "heart_rate"
	MetricDistance      Metric = "distance"
	MetricActiveMinutes Metric = "active_minutes"
	MetricSleepMinutes  Metric = "sleep_minutes"
	MetricWeight        Metric = "weight"
)

// Metrics lists every known metric in stable order.
func Metrics() []Metric {
	return []Metric{
		MetricSteps,
		MetricCalories,
		MetricHeartRate,
		MetricDistance,
		MetricActiveMinutes,
		MetricSleepMinutes,
		MetricWeight,
	}
}

// IsCount reports whether the metric is a count-like quantity. Count metrics
// may use zero as a legitimate "nothing recorded" value; rate metrics must
// use the NaN sentinel instead.
func (m Metric) IsCount() bool {
	switch m {
	case MetricSteps, MetricCalories, MetricDistance, MetricActiveMinutes, MetricSleepMinutes:
		return true
	default:
		return false
	}
}

// ParseMetric converts a string to a Metric.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Metrics() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric: %q", s)
}

// Granularity is the time resolution of a record.
type Granularity string

// Supported granularities, coarsest last.
const (
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
	GranularityDay    Granularity = "day"
)

// ParseGranularity converts a string to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityMinute, GranularityHour, GranularityDay:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity: %q", s)
	}
}

// Minutes returns the number of minutes in one period of the granularity.
func (g Granularity) Minutes() float64 {
	switch g {
	case GranularityMinute:
		return 1
	case GranularityHour:
		return 60
	default:
		return 24 * 60
	}
}

// ModelKind identifies which scorer produced a prediction.
type ModelKind string

// Scorer kinds.
const (
	ModelClassifier ModelKind = "classifier"
	ModelForecaster ModelKind = "forecaster"
	ModelAnomaly    ModelKind = "anomaly"
)

// ScoreStatus describes the outcome of scoring one feature vector.
type ScoreStatus string

// Scoring outcomes. A scorer never fails a batch because of one bad vector;
// it reports insufficient data instead.
const (
	StatusOK               ScoreStatus = "ok"
	StatusInsufficientData ScoreStatus = "insufficient_data"
)

// Priority ranks a recommendation.
type Priority string

// Recommendation priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sortable rank for the priority; high sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Category tags a recommendation with its area of advice.
type Category string

// Recommendation categories.
const (
	CategoryTraining  Category = "training"
	CategoryRecovery  Category = "recovery"
	CategoryNutrition Category = "nutrition"
	CategoryGeneral   Category = "general"
)

// FitnessLevel is the ordered set of classifier buckets.
type FitnessLevel string

// Classifier buckets from weakest to strongest.
const (
	FitnessLow       FitnessLevel = "Low"
	FitnessModerate  FitnessLevel = "Moderate"
	FitnessGood      FitnessLevel = "Good"
	FitnessExcellent FitnessLevel = "Excellent"
)
