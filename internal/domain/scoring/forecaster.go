package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/fitarena/fitpipe/internal/adapters/artifact"
	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
	"github.com/fitarena/fitpipe/pkg/metrics"
)

// intervalZ is the z value for a 95% prediction interval.
const intervalZ = 1.96

// Forecaster predicts a metric one fixed horizon ahead with a direct linear
// model: the point prediction is computed straight from the latest vector's
// features, never from the forecaster's own earlier predictions, so per-step
// errors do not compound.
type Forecaster struct {
	features    []string
	coeffs      map[string]float64
	intercept   float64
	residualStd float64
	metric      types.Metric
	horizon     int
	logger      logger.Logger
}

// NewForecaster builds a forecaster from an artifact.
func NewForecaster(a artifact.Artifact, opts ...ForecasterOption) (*Forecaster, error) {
	if a.Kind != types.ModelForecaster {
		return nil, fmt.Errorf("%w: got %q", ErrWrongKind, a.Kind)
	}
	f := &Forecaster{
		features:    a.Features,
		coeffs:      a.Coefficients,
		intercept:   a.Intercept,
		residualStd: a.ResidualStd,
		metric:      types.MetricSteps,
		horizon:     1,
		logger:      logger.Named("forecaster"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// ForecasterOption applies a configuration option to the Forecaster.
type ForecasterOption func(*Forecaster)

// WithMetric sets the metric the forecast is for.
func WithMetric(m types.Metric) ForecasterOption {
	return func(f *Forecaster) {
		f.metric = m
	}
}

// WithHorizon sets how many periods ahead of the latest vector the forecast
// lands.
func WithHorizon(h int) ForecasterOption {
	return func(f *Forecaster) {
		if h > 0 {
			f.horizon = h
		}
	}
}

// WithForecasterLogger sets a custom logger for the forecaster.
func WithForecasterLogger(l logger.Logger) ForecasterOption {
	return func(f *Forecaster) {
		if l != nil {
			f.logger = l
		}
	}
}

// Kind implements Scorer.
func (f *Forecaster) Kind() types.ModelKind { return types.ModelForecaster }

// Score forecasts from the subject's latest vector. If that vector lacks any
// required feature, often because the subject's history is too short for the
// lag and rolling inputs, the result is an insufficient-data prediction.
func (f *Forecaster) Score(ctx context.Context, vectors []model.FeatureVector) ([]model.Prediction, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyBatch
	}
	last := vectors[len(vectors)-1]
	target := last.Timestamp.Add(time.Duration(f.horizon) * model.PeriodStep(last.Granularity))

	point := f.intercept
	for _, name := range f.features {
		v, ok := last.Get(name)
		if !ok {
			metrics.RecordScoringSkipped(1)
			return []model.Prediction{{
				SubjectID: last.SubjectID,
				Timestamp: target,
				ModelKind: types.ModelForecaster,
				Metric:    f.metric,
				Status:    types.StatusInsufficientData,
			}}, nil
		}
		point += f.coeffs[name] * v
	}
	if point < 0 {
		point = 0
	}

	margin := intervalZ * f.residualStd
	metrics.RecordPredictions(string(types.ModelForecaster), 1)
	return []model.Prediction{{
		SubjectID:    last.SubjectID,
		Timestamp:    target,
		ModelKind:    types.ModelForecaster,
		Metric:       f.metric,
		Value:        point,
		Confidence:   0.95,
		IntervalLow:  point - margin,
		IntervalHigh: point + margin,
		Status:       types.StatusOK,
	}}, nil
}
