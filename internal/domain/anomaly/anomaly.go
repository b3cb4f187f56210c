// Package anomaly flags implausible readings in a subject's resampled metric
// series. Two methods run side by side: a z-score test against the series
// mean and a fence test against the interquartile range. A point is anomalous
// when either method flags it.
package anomaly

import (
	"context"
	"math"
	"sort"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// Defaults for the detection thresholds.
const (
	defaultThreshold     = 2.5
	defaultIQRMultiplier = 1.5
	defaultMinHistory    = 3

	// eps keeps severity finite on zero-spread series.
	eps = 1e-6
)

// Detector finds outliers in metric series built from feature vectors.
type Detector struct {
	threshold     float64
	iqrMultiplier float64
	minHistory    int
	metrics       []types.Metric
	logger        logger.Logger
}

// New creates a Detector with configuration options.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:     defaultThreshold,
		iqrMultiplier: defaultIQRMultiplier,
		minHistory:    defaultMinHistory,
		metrics:       types.Metrics(),
		logger:        logger.Named("anomaly"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect examines each subject's per-metric series and returns one
// prediction per anomalous point. Series shorter than the minimum history
// are skipped, never errors. Output order follows the input vector order,
// metrics in their stable enum order within a vector.
func (d *Detector) Detect(ctx context.Context, vectors []model.FeatureVector) []model.Prediction {
	bySubject := make(map[string][]model.FeatureVector)
	var subjects []string
	for _, v := range vectors {
		if _, ok := bySubject[v.SubjectID]; !ok {
			subjects = append(subjects, v.SubjectID)
		}
		bySubject[v.SubjectID] = append(bySubject[v.SubjectID], v)
	}
	sort.Strings(subjects)

	var out []model.Prediction
	skipped := 0
	for _, s := range subjects {
		preds, skips := d.detectSubject(bySubject[s])
		out = append(out, preds...)
		skipped += skips
	}

	metrics.RecordAnomalies(len(out))
	metrics.RecordPredictions(string(types.ModelAnomaly), len(out))
	if skipped > 0 {
		metrics.RecordScoringSkipped(skipped)
	}
	d.logger.Info(ctx, "anomaly detection done",
		logger.Int("subjects", len(subjects)),
		logger.Int("anomalies", len(out)),
		logger.Int("skippedSeries", skipped),
	)
	return out
}

func (d *Detector) detectSubject(vectors []model.FeatureVector) ([]model.Prediction, int) {
	var out []model.Prediction
	skipped := 0
	for _, m := range d.metrics {
		series := make([]float64, 0, len(vectors))
		for _, v := range vectors {
			if val, ok := v.Get(string(m)); ok {
				series = append(series, val)
			}
		}
		if len(series) == 0 {
			continue
		}
		if len(series) < d.minHistory {
			skipped++
			continue
		}

		mean, std, _ := summarize(series)
		q1 := quantile(series, 0.25)
		q3 := quantile(series, 0.75)
		fence := d.iqrMultiplier * (q3 - q1)

		for _, v := range vectors {
			val, ok := v.Get(string(m))
			if !ok {
				continue
			}
			z := math.Abs(val-mean) / (std + eps)
			excess := 0.0
			if val < q1-fence {
				excess = (q1 - fence) - val
			} else if val > q3+fence {
				excess = val - (q3 + fence)
			}
			if z <= d.threshold && excess == 0 {
				continue
			}
			severity := math.Max(z/d.threshold, excess/(fence+eps))
			out = append(out, model.Prediction{
				SubjectID:  v.SubjectID,
				Timestamp:  v.Timestamp,
				ModelKind:  types.ModelAnomaly,
				Metric:     m,
				Value:      val,
				Label:      "anomaly",
				Confidence: math.Min(1, severity),
				Severity:   severity,
				Status:     types.StatusOK,
			})
		}
	}
	return out, skipped
}

// summarize returns the mean and sample standard deviation of a series. The
// deviation is zero for a single observation; callers guard against
// zero-spread with eps.
func summarize(vals []float64) (mean, std float64, n int) {
	n = len(vals)
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, 0, n
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1)), n
}

// quantile computes the q-quantile with linear interpolation between the two
// nearest order statistics.
func quantile(vals []float64, q float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}
