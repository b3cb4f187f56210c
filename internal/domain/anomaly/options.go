package anomaly

import (
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithThreshold sets the z-score flagging threshold.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 {
			d.threshold = t
		}
	}
}

// WithIQRMultiplier sets the interquartile fence multiplier.
func WithIQRMultiplier(m float64) Option {
	return func(d *Detector) {
		if m > 0 {
			d.iqrMultiplier = m
		}
	}
}

// WithMinHistory sets the minimum number of observations a series needs
// before it is examined at all.
func WithMinHistory(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.minHistory = n
		}
	}
}

// WithMetrics restricts detection to the given metrics.
func WithMetrics(ms []types.Metric) Option {
	return func(d *Detector) {
		if len(ms) > 0 {
			d.metrics = ms
		}
	}
}

// WithLogger sets a custom logger for the detector.
func WithLogger(l logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}
