// Package validate checks a record batch for duplicates, missing slots, and
// implausible values, producing a cleaned sequence plus a quality report.
// The validator never rewrites data: duplicates are dropped (first occurrence
// wins), everything else is reported verbatim.
package validate

import (
	"context"
	"math"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Range is a [Min,Max] physiologically plausible interval for one metric.
type Range struct {
	Min float64
	Max float64
}

// DefaultRanges returns the built-in plausible ranges.
func DefaultRanges() map[types.Metric]Range {
	return map[types.Metric]Range{
		types.MetricHeartRate:     {Min: 30, Max: 220},
		types.MetricSteps:         {Min: 0, Max: 100000},
		types.MetricCalories:      {Min: 0, Max: 10000},
		types.MetricDistance:      {Min: 0, Max: 200},
		types.MetricActiveMinutes: {Min: 0, Max: 1440},
		types.MetricSleepMinutes:  {Min: 0, Max: 1440},
		types.MetricWeight:        {Min: 20, Max: 400},
	}
}

// Default penalty weights and caps; penalties are percentages of the batch.
const (
	defaultMissingWeight   = 1.0
	defaultDuplicateWeight = 1.0
	defaultRangeWeight     = 1.0
	defaultMissingCap      = 20.0
	defaultDuplicateCap    = 10.0
	defaultRangeCap        = 20.0
)

// Validator implements the cleaning policy for one dataset.
type Validator struct {
	ranges map[types.Metric]Range

	missingWeight   float64
	duplicateWeight float64
	rangeWeight     float64
	missingCap      float64
	duplicateCap    float64
	rangeCap        float64

	logger logger.Logger
}

// New creates a Validator with configuration options.
func New(opts ...Option) *Validator {
	v := &Validator{
		ranges:          DefaultRanges(),
		missingWeight:   defaultMissingWeight,
		duplicateWeight: defaultDuplicateWeight,
		rangeWeight:     defaultRangeWeight,
		missingCap:      defaultMissingCap,
		duplicateCap:    defaultDuplicateCap,
		rangeCap:        defaultRangeCap,
		logger:          logger.Named("validate"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the cleaned record sequence and a quality report for one
// dataset. Duplicate (subject, timestamp, metric) entries keep the first
// occurrence in input order; missing slots and out-of-range values are
// counted but never imputed or rewritten. Only a dataset with no records at
// all is an error.
func (v *Validator) Validate(ctx context.Context, dataset string, recs []model.Record) ([]model.Record, model.QualityReport, error) {
	if len(recs) == 0 {
		return nil, model.QualityReport{}, ErrEmptyDataset
	}

	report := model.QualityReport{
		Dataset:            dataset,
		TotalRows:          len(recs),
		MissingByMetric:    make(map[types.Metric]int),
		OutOfRangeByMetric: make(map[types.Metric]int),
	}

	// Drop duplicates, first occurrence wins.
	seen := make(map[model.RecordKey]bool, len(recs))
	cleaned := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		key := r.Key()
		if seen[key] {
			report.DuplicateRows++
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, r)
	}

	// Flag implausible values; the records themselves stay untouched.
	// NaN readings are missing data, not range findings; they are counted
	// with the absent slots below.
	outOfRange := 0
	for _, r := range cleaned {
		if math.IsNaN(r.Value) {
			continue
		}
		if rng, ok := v.ranges[r.Metric]; ok {
			if r.Value < rng.Min || r.Value > rng.Max {
				report.OutOfRangeByMetric[r.Metric]++
				outOfRange++
			}
		}
	}

	// Count missing slots inside each series' observed span. A slot with
	// only a NaN reading is just as absent as a slot with no record.
	expected, missing := v.countMissingSlots(cleaned, report.MissingByMetric)

	report.DuplicateFraction = float64(report.DuplicateRows) / float64(report.TotalRows)
	report.OutOfRangeFraction = float64(outOfRange) / float64(report.TotalRows)
	if expected > 0 {
		report.MissingFraction = float64(missing) / float64(expected)
	}
	report.Score = v.score(report)

	metrics.RecordDuplicatesDropped(report.DuplicateRows)
	metrics.RecordOutOfRange(outOfRange)
	metrics.RecordMissingSlots(missing)
	metrics.UpdateQualityScore(report.Score)

	v.logger.Info(ctx, "dataset validated",
		logger.String("dataset", dataset),
		logger.Int("rows", report.TotalRows),
		logger.Int("duplicates", report.DuplicateRows),
		logger.Int("outOfRange", outOfRange),
		logger.Int("missingSlots", missing),
		logger.Float64("score", report.Score),
	)

	return cleaned, report, nil
}

// countMissingSlots walks each (subject, metric, granularity) series and
// counts period slots between its first and last observation that have no
// readable value. A NaN record extends the series span but does not fill its
// slot, so a fully unreadable series counts as fully missing.
func (v *Validator) countMissingSlots(recs []model.Record, missingByMetric map[types.Metric]int) (expected, missing int) {
	type seriesKey struct {
		subject     string
		metric      types.Metric
		granularity types.Granularity
	}
	type span struct {
		first   int64
		last    int64
		periods map[int64]bool
	}

	series := make(map[seriesKey]*span)
	for _, r := range recs {
		key := seriesKey{subject: r.SubjectID, metric: r.Metric, granularity: r.Granularity}
		p := model.PeriodStart(r.Timestamp, r.Granularity).Unix()
		s, ok := series[key]
		if !ok {
			s = &span{first: p, last: p, periods: make(map[int64]bool)}
			series[key] = s
		}
		if p < s.first {
			s.first = p
		}
		if p > s.last {
			s.last = p
		}
		if !math.IsNaN(r.Value) {
			s.periods[p] = true
		}
	}

	for key, s := range series {
		step := int64(model.PeriodStep(key.granularity).Seconds())
		want := int((s.last-s.first)/step) + 1
		gap := want - len(s.periods)
		expected += want
		if gap > 0 {
			missing += gap
			missingByMetric[key.metric] += gap
		}
	}
	return expected, missing
}

// score computes 100 minus the capped, weighted penalties, clamped to
// [0,100] and rounded to two decimals.
func (v *Validator) score(r model.QualityReport) float64 {
	score := 100.0
	score -= math.Min(r.MissingFraction*100*v.missingWeight, v.missingCap)
	score -= math.Min(r.DuplicateFraction*100*v.duplicateWeight, v.duplicateCap)
	score -= math.Min(r.OutOfRangeFraction*100*v.rangeWeight, v.rangeCap)
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*100) / 100
}
