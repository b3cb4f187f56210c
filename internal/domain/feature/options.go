package feature

import (
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
)

// Option applies a configuration option to the Engineer.
type Option func(*Engineer)

// WithTargetGranularity sets the resampling target, commonly day.
func WithTargetGranularity(g types.Granularity) Option {
	return func(e *Engineer) {
		e.target = g
	}
}

// WithWindows replaces the rolling window sizes.
func WithWindows(windows []int) Option {
	return func(e *Engineer) {
		if len(windows) > 0 {
			e.windows = windows
		}
	}
}

// WithLags replaces the lag offsets.
func WithLags(lags []int) Option {
	return func(e *Engineer) {
		if len(lags) > 0 {
			e.lags = lags
		}
	}
}

// WithSeriesMetrics replaces the metrics that receive rolling, lag, change,
// and historical-aggregate features.
func WithSeriesMetrics(ms []types.Metric) Option {
	return func(e *Engineer) {
		if len(ms) > 0 {
			e.seriesMetrics = ms
		}
	}
}

// WithLogger sets a custom logger for the engineer.
func WithLogger(l logger.Logger) Option {
	return func(e *Engineer) {
		if l != nil {
			e.logger = l
		}
	}
}
