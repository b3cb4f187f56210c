package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FITPIPE_CONFIG is set
//  3. env (prefix FITPIPE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FITPIPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FITPIPE_INPUT_DIR, FITPIPE_WORKER_COUNT, ...
	// Map env keys like FITPIPE_WORKER_COUNT -> worker_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("FITPIPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "fitpipe_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.ForecastHorizon < 1 {
		return fmt.Errorf("%w: forecast_horizon must be positive", ErrInvalidConfig)
	}
	if c.ZScoreThreshold <= 0 {
		return fmt.Errorf("%w: zscore_threshold must be positive", ErrInvalidConfig)
	}
	if c.IQRMultiplier <= 0 {
		return fmt.Errorf("%w: iqr_multiplier must be positive", ErrInvalidConfig)
	}
	switch c.TargetGranularity {
	case "minute", "hour", "day":
	default:
		return fmt.Errorf("%w: unknown target_granularity %q", ErrInvalidConfig, c.TargetGranularity)
	}
	for name, bounds := range c.MetricRanges {
		if len(bounds) != 2 || bounds[0] > bounds[1] {
			return fmt.Errorf("%w: metric range for %q must be [min,max]", ErrInvalidConfig, name)
		}
	}
	return nil
}
