package scoring

import (
	"errors"
)

// Sentinel kinds for scorer construction errors. Scoring itself never raises
// per-vector errors.
var (
	ErrWrongKind  = errors.New("artifact kind does not match scorer")
	ErrEmptyBatch = errors.New("no vectors to score")
)
