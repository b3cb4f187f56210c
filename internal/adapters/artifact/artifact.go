// Package artifact loads and saves versioned model documents. Scorers never
// hard-code their weights; they read them from an artifact, and built-in
// defaults allow running without any files on disk.
package artifact

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/fitarena/fitpipe/internal/domain/types"
)

// SchemaVersion is the artifact document version this build reads and writes.
const SchemaVersion = 1

// Artifact is one serialized model: linear coefficients for the forecaster,
// bin edges and labels for the classifier.
type Artifact struct {
	SchemaVersion int                `json:"schema_version"`
	Kind          types.ModelKind    `json:"kind"`
	Features      []string           `json:"features"`
	Coefficients  map[string]float64 `json:"coefficients,omitempty"`
	Intercept     float64            `json:"intercept,omitempty"`
	ResidualStd   float64            `json:"residual_std,omitempty"`
	Thresholds    []float64          `json:"thresholds,omitempty"`
	Labels        []string           `json:"labels,omitempty"`
}

// Load reads and validates an artifact document from disk.
func Load(path string) (Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: read %s: %v", ErrArtifact, path, err)
	}
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return Artifact{}, fmt.Errorf("%w: parse %s: %v", ErrArtifact, path, err)
	}
	if a.SchemaVersion != SchemaVersion {
		return Artifact{}, fmt.Errorf("%w: got %d, want %d", ErrUnknownVersion, a.SchemaVersion, SchemaVersion)
	}
	if err := a.validate(); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Save writes an artifact document to disk.
func Save(path string, a Artifact) error {
	a.SchemaVersion = SchemaVersion
	if err := a.validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrArtifact, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrArtifact, path, err)
	}
	return nil
}

func (a Artifact) validate() error {
	switch a.Kind {
	case types.ModelClassifier:
		if len(a.Labels) != len(a.Thresholds)+1 {
			return fmt.Errorf("%w: classifier needs one more label than thresholds, got %d labels for %d thresholds",
				ErrInvalidArtifact, len(a.Labels), len(a.Thresholds))
		}
		for i := 1; i < len(a.Thresholds); i++ {
			if a.Thresholds[i] <= a.Thresholds[i-1] {
				return fmt.Errorf("%w: thresholds must be strictly increasing", ErrInvalidArtifact)
			}
		}
	case types.ModelForecaster:
		if len(a.Features) == 0 {
			return fmt.Errorf("%w: forecaster needs at least one feature", ErrInvalidArtifact)
		}
		for _, f := range a.Features {
			if _, ok := a.Coefficients[f]; !ok {
				return fmt.Errorf("%w: missing coefficient for feature %q", ErrInvalidArtifact, f)
			}
		}
		if a.ResidualStd < 0 {
			return fmt.Errorf("%w: residual std must be non-negative", ErrInvalidArtifact)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidArtifact, a.Kind)
	}
	return nil
}

// DefaultClassifier is the built-in fitness-level model: performance-score
// bins at 30/50/70.
func DefaultClassifier() Artifact {
	return Artifact{
		SchemaVersion: SchemaVersion,
		Kind:          types.ModelClassifier,
		Features:      []string{"performance_score"},
		Thresholds:    []float64{30, 50, 70},
		Labels: []string{
			string(types.FitnessLow),
			string(types.FitnessModerate),
			string(types.FitnessGood),
			string(types.FitnessExcellent),
		},
	}
}

// DefaultForecaster is the built-in next-period step model: a linear blend of
// yesterday and the weekly rolling mean.
func DefaultForecaster() Artifact {
	return Artifact{
		SchemaVersion: SchemaVersion,
		Kind:          types.ModelForecaster,
		Features:      []string{"steps_lag_1", "steps_rolling_mean_7"},
		Coefficients: map[string]float64{
			"steps_lag_1":          0.35,
			"steps_rolling_mean_7": 0.60,
		},
		Intercept:   250,
		ResidualStd: 1800,
	}
}
