package validate

import (
	"github.com/fitarena/fitpipe/internal/domain/types"
	"github.com/fitarena/fitpipe/pkg/logger"
)

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithRanges replaces the plausible-value ranges used for range checks.
func WithRanges(ranges map[types.Metric]Range) Option {
	return func(v *Validator) {
		if len(ranges) > 0 {
			v.ranges = ranges
		}
	}
}

// WithWeights sets the quality-score penalty weights for the missing,
// duplicate, and out-of-range fractions.
func WithWeights(missing, duplicate, outOfRange float64) Option {
	return func(v *Validator) {
		if missing >= 0 {
			v.missingWeight = missing
		}
		if duplicate >= 0 {
			v.duplicateWeight = duplicate
		}
		if outOfRange >= 0 {
			v.rangeWeight = outOfRange
		}
	}
}

// WithCaps bounds how many points each penalty class can cost.
func WithCaps(missing, duplicate, outOfRange float64) Option {
	return func(v *Validator) {
		if missing >= 0 {
			v.missingCap = missing
		}
		if duplicate >= 0 {
			v.duplicateCap = duplicate
		}
		if outOfRange >= 0 {
			v.rangeCap = outOfRange
		}
	}
}

// WithLogger sets a custom logger for the validator.
func WithLogger(l logger.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}
