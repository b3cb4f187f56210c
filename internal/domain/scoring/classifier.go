package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/fitarena/fitpipe/internal/adapters/artifact"
	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Classifier buckets each period's performance score into a fitness level.
// Bin edges and labels come from a versioned artifact; the built-in default
// uses edges 30/50/70.
type Classifier struct {
	feature    string
	thresholds []float64
	labels     []string
	logger     logger.Logger
}

// NewClassifier builds a classifier from an artifact.
func NewClassifier(a artifact.Artifact, opts ...ClassifierOption) (*Classifier, error) {
	if a.Kind != types.ModelClassifier {
		return nil, fmt.Errorf("%w: got %q", ErrWrongKind, a.Kind)
	}
	feat := "performance_score"
	if len(a.Features) > 0 {
		feat = a.Features[0]
	}
	c := &Classifier{
		feature:    feat,
		thresholds: a.Thresholds,
		labels:     a.Labels,
		logger:     logger.Named("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClassifierOption applies a configuration option to the Classifier.
type ClassifierOption func(*Classifier)

// WithClassifierLogger sets a custom logger for the classifier.
func WithClassifierLogger(l logger.Logger) ClassifierOption {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// Kind implements Scorer.
func (c *Classifier) Kind() types.ModelKind { return types.ModelClassifier }

// Score labels each vector. A vector without the score feature gets an
// insufficient-data prediction rather than failing the batch.
func (c *Classifier) Score(ctx context.Context, vectors []model.FeatureVector) ([]model.Prediction, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]model.Prediction, 0, len(vectors))
	skipped := 0
	for _, v := range vectors {
		score, ok := v.Get(c.feature)
		if !ok {
			skipped++
			out = append(out, model.Prediction{
				SubjectID: v.SubjectID,
				Timestamp: v.Timestamp,
				ModelKind: types.ModelClassifier,
				Status:    types.StatusInsufficientData,
			})
			continue
		}
		label, confidence := c.classify(score)
		out = append(out, model.Prediction{
			SubjectID:  v.SubjectID,
			Timestamp:  v.Timestamp,
			ModelKind:  types.ModelClassifier,
			Value:      score,
			Label:      label,
			Confidence: confidence,
			Status:     types.StatusOK,
		})
	}
	metrics.RecordPredictions(string(types.ModelClassifier), len(out)-skipped)
	metrics.RecordScoringSkipped(skipped)
	return out, nil
}

// classify returns the bucket label for a score and a confidence that grows
// with the score's distance from the nearest bin edge.
func (c *Classifier) classify(score float64) (string, float64) {
	idx := len(c.thresholds)
	for i, t := range c.thresholds {
		if score <= t {
			idx = i
			break
		}
	}

	// Outer bins are bounded by the score scale itself.
	lower, upper := 0.0, 100.0
	if idx > 0 {
		lower = c.thresholds[idx-1]
	}
	if idx < len(c.thresholds) {
		upper = c.thresholds[idx]
	}
	halfWidth := (upper - lower) / 2
	dist := math.Max(0, math.Min(score-lower, upper-score))
	confidence := 0.5
	if halfWidth > 0 {
		confidence += 0.45 * math.Min(1, dist/halfWidth)
	}
	return c.labels[idx], confidence
}
