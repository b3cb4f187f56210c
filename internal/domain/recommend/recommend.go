// Package recommend composes ranked suggestions from a subject's feature
// vectors and predictions. Rules are evaluated in a fixed order, safety
// first, so identical input always yields recommendations identical in
// content and order.
package recommend

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Confidence scales with how much of the window was actually observed;
// a fortnight of history earns full weight.
const fullConfidencePeriods = 14

// Composer evaluates the rule set per subject.
type Composer struct {
	clock  func() time.Time
	logger logger.Logger
}

// New creates a Composer with configuration options.
func New(opts ...Option) *Composer {
	c := &Composer{
		clock:  time.Now,
		logger: logger.Named("recommend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose returns recommendations for every subject present in the vectors.
// Within a subject the output is ordered by priority rank, then rule order;
// no two recommendations share (category, rule). A new batch supersedes
// earlier ones rather than editing them.
func (c *Composer) Compose(ctx context.Context, vectors []model.FeatureVector, preds []model.Prediction) []model.Recommendation {
	bySubject := make(map[string][]model.FeatureVector)
	for _, v := range vectors {
		bySubject[v.SubjectID] = append(bySubject[v.SubjectID], v)
	}
	severity := make(map[string]float64)
	for _, p := range preds {
		if p.ModelKind == types.ModelAnomaly && p.Severity > severity[p.SubjectID] {
			severity[p.SubjectID] = p.Severity
		}
	}
	subjects := make([]string, 0, len(bySubject))
	for s := range bySubject {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	now := c.clock()
	var out []model.Recommendation
	for _, s := range subjects {
		out = append(out, c.composeSubject(s, bySubject[s], severity[s], now)...)
	}

	metrics.RecordRecommendations(len(out))
	c.logger.Info(ctx, "recommendations composed",
		logger.Int("subjects", len(subjects)),
		logger.Int("recommendations", len(out)),
	)
	return out
}

func (c *Composer) composeSubject(subject string, vectors []model.FeatureVector, maxSeverity float64, now time.Time) []model.Recommendation {
	a := analyze(vectors, maxSeverity)
	scale := math.Max(0.5, math.Min(1, float64(a.periods)/fullConfidencePeriods))

	seen := make(map[string]bool)
	var out []model.Recommendation
	for _, r := range rules {
		if !r.trigger(a) {
			continue
		}
		dedupe := string(r.category) + "/" + r.id
		if seen[dedupe] {
			continue
		}
		seen[dedupe] = true
		out = append(out, model.Recommendation{
			SubjectID:   subject,
			RuleID:      r.id,
			Category:    r.category,
			Priority:    r.priority,
			Title:       r.title,
			Description: r.describe(a),
			ActionItems: r.actionItems,
			Confidence:  r.base * scale,
			GeneratedAt: now,
		})
	}

	// Rules already fired in declaration order; a stable sort leaves that
	// order intact within each priority.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

// analyze reduces a subject's window to the aggregates the rules read.
func analyze(vectors []model.FeatureVector, maxSeverity float64) analysis {
	steps := seriesOf(vectors, string(types.MetricSteps))
	a := analysis{
		periods:     len(vectors),
		avgSteps:    mean(steps),
		avgActive:   mean(seriesOf(vectors, string(types.MetricActiveMinutes))),
		avgCalories: mean(seriesOf(vectors, string(types.MetricCalories))),
		avgSleep:    mean(seriesOf(vectors, string(types.MetricSleepMinutes))),
		avgScore:    mean(seriesOf(vectors, "performance_score")),
		slope:       slope(steps),
		consistency: consistency(steps),
		maxSeverity: maxSeverity,
	}
	return a
}

func seriesOf(vectors []model.FeatureVector, name string) []float64 {
	out := make([]float64, 0, len(vectors))
	for _, v := range vectors {
		if val, ok := v.Get(name); ok {
			out = append(out, val)
		}
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// slope fits a least-squares line over the series index and returns its
// per-period gradient. Fewer than two points is a flat trend.
func slope(vals []float64) float64 {
	n := float64(len(vals))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range vals {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

// consistency maps the coefficient of variation onto a 0..100 score, higher
// meaning steadier. A window too short to judge scores a neutral 50.
func consistency(vals []float64) float64 {
	if len(vals) < 2 {
		return 50
	}
	m := mean(vals)
	if m <= 0 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(vals)-1))
	cv := std / m
	return math.Max(0, math.Min(100, 100*(1-cv)))
}
