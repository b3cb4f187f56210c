package sink

import (
	"errors"
)

// Sentinel kinds for sink errors.
var (
	ErrWrite = errors.New("failed to write output")
)
