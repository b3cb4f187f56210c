// Package feature turns cleaned records into model-ready feature vectors.
// Each subject is processed independently: records are resampled to the
// target granularity, then enriched with temporal, ratio, rolling, lag,
// change, and expanding historical features. Every derived value at period t
// uses observations at or before t only.
package feature

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Default derived-feature shape.
var (
	defaultWindows       = []int{3, 7, 14, 30}
	defaultLags          = []int{1, 3, 7}
	defaultSeriesMetrics = []types.Metric{types.MetricSteps, types.MetricCalories, types.MetricDistance}
)

// Performance-score weighting: each component is clipped to its target and
// contributes its share of 100 points. A missing component contributes zero.
const (
	stepsTarget      = 15000.0
	activeTarget     = 60.0
	caloriesTarget   = 3000.0
	stepsWeight      = 40.0
	activeWeight     = 30.0
	caloriesWeight   = 30.0
	performanceScore = "performance_score"
)

// Engineer builds feature vectors from validated records.
type Engineer struct {
	target        types.Granularity
	windows       []int
	lags          []int
	seriesMetrics []types.Metric
	logger        logger.Logger
}

// New creates an Engineer with configuration options.
func New(opts ...Option) *Engineer {
	e := &Engineer{
		target:        types.GranularityDay,
		windows:       defaultWindows,
		lags:          defaultLags,
		seriesMetrics: defaultSeriesMetrics,
		logger:        logger.Named("feature"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build produces exactly one feature vector per (subject, period) inside each
// subject's observed span. The output is sorted by subject then timestamp and
// is a pure function of the input: rebuilding from the same records yields
// identical vectors.
func (e *Engineer) Build(ctx context.Context, recs []model.Record) ([]model.FeatureVector, error) {
	if len(recs) == 0 {
		return nil, ErrNoRecords
	}

	bySubject := make(map[string][]model.Record)
	for _, r := range recs {
		bySubject[r.SubjectID] = append(bySubject[r.SubjectID], r)
	}
	subjects := make([]string, 0, len(bySubject))
	for s := range bySubject {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	var out []model.FeatureVector
	gaps := 0
	for _, s := range subjects {
		vectors := e.buildSubject(s, bySubject[s])
		for _, v := range vectors {
			gaps += len(v.Gaps)
		}
		out = append(out, vectors...)
	}

	metrics.RecordFeatureVectors(len(out))
	metrics.RecordFeatureGaps(gaps)
	e.logger.Info(ctx, "features built",
		logger.Int("subjects", len(subjects)),
		logger.Int("vectors", len(out)),
		logger.Int("gaps", gaps),
	)
	return out, nil
}

// row accumulates one vector's features, tracking sentinel gaps as they land.
type row struct {
	features map[string]float64
	gaps     []string
}

func (r *row) set(name string, v float64) {
	r.features[name] = v
	if math.IsNaN(v) {
		r.gaps = append(r.gaps, name)
	}
}

func (e *Engineer) buildSubject(subject string, recs []model.Record) []model.FeatureVector {
	periods, series := e.resample(recs)
	if len(periods) == 0 {
		return nil
	}

	out := make([]model.FeatureVector, 0, len(periods))
	for i, p := range periods {
		r := &row{features: make(map[string]float64)}

		for _, m := range types.Metrics() {
			r.set(string(m), series[m][i])
		}
		e.temporalFeatures(r, p)
		e.ratioFeatures(r, series, i)
		for _, m := range e.seriesMetrics {
			e.seriesFeatures(r, m, series[m], i)
		}
		r.set(performanceScore, performance(series, i))

		sort.Strings(r.gaps)
		out = append(out, model.FeatureVector{
			SubjectID:   subject,
			Timestamp:   p,
			Granularity: e.target,
			Features:    r.features,
			Gaps:        r.gaps,
		})
	}
	return out
}

// resample aggregates one subject's records onto the target-granularity grid
// spanning its first through last observation. Count metrics sum their
// readings inside a period; rate metrics average them. Periods with no
// readable value for a metric hold the NaN sentinel.
func (e *Engineer) resample(recs []model.Record) ([]time.Time, map[types.Metric][]float64) {
	type agg struct {
		sum float64
		n   int
	}
	buckets := make(map[int64]map[types.Metric]*agg)
	var first, last time.Time
	for _, rec := range recs {
		p := model.PeriodStart(rec.Timestamp, e.target)
		if first.IsZero() || p.Before(first) {
			first = p
		}
		if last.IsZero() || p.After(last) {
			last = p
		}
		key := p.Unix()
		b, ok := buckets[key]
		if !ok {
			b = make(map[types.Metric]*agg)
			buckets[key] = b
		}
		if math.IsNaN(rec.Value) {
			continue
		}
		a, ok := b[rec.Metric]
		if !ok {
			a = &agg{}
			b[rec.Metric] = a
		}
		a.sum += rec.Value
		a.n++
	}
	if first.IsZero() {
		return nil, nil
	}

	// UTC periods are uniform, so stepping by the period duration covers the
	// grid exactly.
	step := model.PeriodStep(e.target)
	var periods []time.Time
	for p := first; !p.After(last); p = p.Add(step) {
		periods = append(periods, p)
	}

	series := make(map[types.Metric][]float64, len(types.Metrics()))
	for _, m := range types.Metrics() {
		vals := make([]float64, len(periods))
		for i, p := range periods {
			vals[i] = math.NaN()
			if b, ok := buckets[p.Unix()]; ok {
				if a, ok := b[m]; ok && a.n > 0 {
					if m.IsCount() {
						vals[i] = a.sum
					} else {
						vals[i] = a.sum / float64(a.n)
					}
				}
			}
		}
		series[m] = vals
	}
	return periods, series
}

// temporalFeatures derives calendar features from the period start.
// day_of_week counts Monday as 0; the weekend is Saturday and Sunday.
func (e *Engineer) temporalFeatures(r *row, p time.Time) {
	dow := (int(p.Weekday()) + 6) % 7
	r.set("day_of_week", float64(dow))
	weekend := 0.0
	if dow >= 5 {
		weekend = 1
	}
	r.set("is_weekend", weekend)
	_, week := p.ISOWeek()
	r.set("week_of_year", float64(week))
	r.set("month", float64(p.Month()))
	r.set("quarter", float64((int(p.Month())-1)/3+1))
}

// ratioFeatures derives cross-metric ratios for the current period. A zero
// or missing denominator yields the NaN sentinel rather than an inflated or
// smoothed value.
func (e *Engineer) ratioFeatures(r *row, series map[types.Metric][]float64, i int) {
	steps := series[types.MetricSteps][i]
	calories := series[types.MetricCalories][i]
	distance := series[types.MetricDistance][i]
	active := series[types.MetricActiveMinutes][i]

	r.set("active_ratio", safeDiv(active, e.target.Minutes()))
	r.set("calories_per_step", safeDiv(calories, steps))
	r.set("steps_per_km", safeDiv(steps, distance))
	r.set("calories_per_active_minute", safeDiv(calories, active))
}

// seriesFeatures derives the rolling, lag, change, and expanding historical
// features for one metric at grid index i.
func (e *Engineer) seriesFeatures(r *row, m types.Metric, vals []float64, i int) {
	name := string(m)

	for _, w := range e.windows {
		lo := i - w + 1
		if lo < 0 {
			lo = 0
		}
		mean, std, _ := summarize(vals[lo : i+1])
		r.set(fmt.Sprintf("%s_rolling_mean_%d", name, w), mean)
		r.set(fmt.Sprintf("%s_rolling_std_%d", name, w), std)
	}

	for _, l := range e.lags {
		lagged := math.NaN()
		if i-l >= 0 {
			lagged = vals[i-l]
		}
		r.set(fmt.Sprintf("%s_lag_%d", name, l), lagged)
	}

	cur := vals[i]
	prev := math.NaN()
	if i > 0 {
		prev = vals[i-1]
	}
	change := math.NaN()
	if !math.IsNaN(cur) && !math.IsNaN(prev) {
		change = cur - prev
	}
	r.set(name+"_change", change)
	pct := math.NaN()
	if !math.IsNaN(cur) && !math.IsNaN(prev) && prev != 0 {
		pct = (cur - prev) / prev * 100
	}
	r.set(name+"_pct_change", pct)

	mean, std, _ := summarize(vals[:i+1])
	lo, hi := minMax(vals[:i+1])
	r.set(name+"_hist_mean", mean)
	r.set(name+"_hist_std", std)
	r.set(name+"_hist_min", lo)
	r.set(name+"_hist_max", hi)
}

// performance scores one period on 0..100 from steps, active minutes, and
// calories. Each component is clipped to its target; a missing component
// contributes nothing rather than poisoning the score.
func performance(series map[types.Metric][]float64, i int) float64 {
	score := 0.0
	if v := series[types.MetricSteps][i]; !math.IsNaN(v) {
		score += clip01(v/stepsTarget) * stepsWeight
	}
	if v := series[types.MetricActiveMinutes][i]; !math.IsNaN(v) {
		score += clip01(v/activeTarget) * activeWeight
	}
	if v := series[types.MetricCalories][i]; !math.IsNaN(v) {
		score += clip01(v/caloriesTarget) * caloriesWeight
	}
	return score
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func safeDiv(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}

// summarize returns the mean and sample standard deviation of the non-NaN
// values. The mean is NaN with no observations, the deviation NaN with fewer
// than two.
func summarize(vals []float64) (mean, std float64, n int) {
	sum := 0.0
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, math.NaN(), n
	}
	var ss float64
	for _, v := range vals {
		if !math.IsNaN(v) {
			d := v - mean
			ss += d * d
		}
	}
	return mean, math.Sqrt(ss / float64(n-1)), n
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(lo) || v < lo {
			lo = v
		}
		if math.IsNaN(hi) || v > hi {
			hi = v
		}
	}
	return lo, hi
}
