package validate

import (
	"errors"
)

// Sentinel kinds for validation errors. Per-row data-quality findings are
// never errors; only structurally impossible input is.
var (
	ErrEmptyDataset = errors.New("dataset has no records")
)
