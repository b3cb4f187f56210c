// Package model contains the immutable data shapes passed between pipeline
// stages.
package model

import (
	"time"

	"github.com/fitarena/fitpipe/internal/domain/types"
)

// Record is one observation loaded from a source batch. Records are created
// by the loader and never mutated downstream.
type Record struct {
	SubjectID   string
	Timestamp   time.Time // always UTC
	Metric      types.Metric
	Value       float64 // NaN when the source cell was unreadable
	Granularity types.Granularity
}

// Key identifies a record for duplicate detection.
func (r Record) Key() RecordKey {
	return RecordKey{SubjectID: r.SubjectID, Timestamp: r.Timestamp.Unix(), Metric: r.Metric}
}

// RecordKey is the (subject, timestamp, metric) identity of a record.
type RecordKey struct {
	SubjectID string
	Timestamp int64
	Metric    types.Metric
}

// PeriodStart truncates a timestamp to the start of its period at the given
// granularity, in UTC.
func PeriodStart(ts time.Time, g types.Granularity) time.Time {
	ts = ts.UTC()
	switch g {
	case types.GranularityMinute:
		return ts.Truncate(time.Minute)
	case types.GranularityHour:
		return ts.Truncate(time.Hour)
	default:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// PeriodStep returns the duration of one period at the given granularity.
func PeriodStep(g types.Granularity) time.Duration {
	switch g {
	case types.GranularityMinute:
		return time.Minute
	case types.GranularityHour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// FeatureVector is the model-ready row for one (subject, period). Missing
// feature values carry the NaN sentinel and are listed in Gaps; they are
// never silently zeroed unless the feature is a count.
type FeatureVector struct {
	SubjectID   string
	Timestamp   time.Time
	Granularity types.Granularity
	Features    map[string]float64
	Gaps        []string
}

// Get returns the named feature and whether it is present and non-sentinel.
func (v FeatureVector) Get(name string) (float64, bool) {
	f, ok := v.Features[name]
	if !ok || f != f { // NaN check without importing math
		return 0, false
	}
	return f, true
}

// QualityReport summarizes the validator's findings for one dataset. It is
// produced once per load batch and read-only downstream.
//
// DuplicateFraction and OutOfRangeFraction share TotalRows as their
// denominator so they are mutually comparable; MissingFraction is over the
// number of expected period slots, since missing slots have no row to count.
type QualityReport struct {
	Dataset            string
	TotalRows          int
	DuplicateRows      int
	MissingByMetric    map[types.Metric]int
	OutOfRangeByMetric map[types.Metric]int
	MissingFraction    float64
	DuplicateFraction  float64
	OutOfRangeFraction float64
	Score              float64 // [0,100]
}

// Prediction is one scorer output for a (subject, timestamp). Never mutated
// after creation.
type Prediction struct {
	SubjectID  string
	Timestamp  time.Time
	ModelKind  types.ModelKind
	Metric     types.Metric // set for forecaster and anomaly predictions
	Value      float64
	Label      string
	Confidence float64
	// Interval bounds are set by the forecaster only.
	IntervalLow  float64
	IntervalHigh float64
	// Severity is set by the anomaly detector only.
	Severity float64
	Status   types.ScoreStatus
}

// Recommendation is one composed suggestion for a subject. A new generation
// run supersedes earlier recommendations; they are never edited in place.
type Recommendation struct {
	SubjectID   string
	RuleID      string
	Category    types.Category
	Priority    types.Priority
	Title       string
	Description string
	ActionItems []string
	Confidence  float64
	GeneratedAt time.Time
}
