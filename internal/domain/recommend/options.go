package recommend

import (
	"time"

	"github.com/fitarena/fitpipe/pkg/logger"
)

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithClock replaces the time source stamped onto recommendations. Two runs
// with the same clock and input produce identical output.
func WithClock(clock func() time.Time) Option {
	return func(c *Composer) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the composer.
func WithLogger(l logger.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}
