// Package scoring holds the model scorers that turn feature vectors into
// predictions. Scorers are batch-oriented and never fail a whole batch
// because of one bad vector: a vector missing its required inputs yields a
// prediction with the insufficient-data status instead.
package scoring

import (
	"context"

	"github.com/fitarena/fitpipe/internal/domain/model"
	"github.com/fitarena/fitpipe/internal/domain/types"
)

// Scorer scores one subject's feature vectors.
type Scorer interface {
	// Kind identifies the model behind the scorer.
	Kind() types.ModelKind

	// Score returns predictions for the batch. The batch belongs to a single
	// subject, ordered by timestamp.
	Score(ctx context.Context, vectors []model.FeatureVector) ([]model.Prediction, error)
}
