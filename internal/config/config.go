// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and environment vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputDir is scanned for CSV batch files by the runner.
	InputDir string `koanf:"input_dir"`

	// OutputDir receives feature/prediction/recommendation artifacts.
	OutputDir string `koanf:"output_dir"`

	// WorkerCount bounds the per-subject worker pool.
	WorkerCount int `koanf:"worker_count"`

	// TargetGranularity is the resampling target: minute, hour, or day.
	TargetGranularity string `koanf:"target_granularity"`

	// ForecastHorizon is how many periods ahead the forecaster predicts.
	ForecastHorizon int `koanf:"forecast_horizon"`

	// ZScoreThreshold flags a record anomalous when its z-score exceeds it.
	ZScoreThreshold float64 `koanf:"zscore_threshold"`

	// IQRMultiplier widens the interquartile fence, conventionally 1.5.
	IQRMultiplier float64 `koanf:"iqr_multiplier"`

	// MinHistory is the minimum number of periods needed before anomaly
	// statistics are considered meaningful.
	MinHistory int `koanf:"min_history"`

	// Quality score weights and penalty caps.
	MissingWeight   float64 `koanf:"missing_weight"`
	DuplicateWeight float64 `koanf:"duplicate_weight"`
	RangeWeight     float64 `koanf:"range_weight"`
	MissingCap      float64 `koanf:"missing_cap"`
	DuplicateCap    float64 `koanf:"duplicate_cap"`
	RangeCap        float64 `koanf:"range_cap"`

	// MetricRanges maps metric names to [min,max] physiologically plausible
	// bounds used by the validator.
	MetricRanges map[string][]float64 `koanf:"metric_ranges"`

	// ClassifierArtifact and ForecasterArtifact point at frozen model files.
	// Empty means use the built-in defaults.
	ClassifierArtifact string `koanf:"classifier_artifact"`
	ForecasterArtifact string `koanf:"forecaster_artifact"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		InputDir:          "./data",
		OutputDir:         "./out",
		WorkerCount:       runtime.NumCPU(),
		TargetGranularity: "day",
		ForecastHorizon:   1,
		ZScoreThreshold:   2.5,
		IQRMultiplier:     1.5,
		MinHistory:        3,
		MissingWeight:     1.0,
		DuplicateWeight:   1.0,
		RangeWeight:       1.0,
		MissingCap:        20,
		DuplicateCap:      10,
		RangeCap:          20,
		MetricRanges: map[string][]float64{
			"heart_rate":     {30, 220},
			"steps":          {0, 100000},
			"calories":       {0, 10000},
			"distance":       {0, 200},
			"active_minutes": {0, 1440},
			"sleep_minutes":  {0, 1440},
			"weight":         {20, 400},
		},
	}
}
