package feature

import (
	"errors"
)

// Sentinel kinds for feature-engineering errors.
var (
	ErrNoRecords = errors.New("no records to build features from")
)
