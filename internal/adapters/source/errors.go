package source

import (
	"errors"
	"fmt"
)

// ErrLoad is the base kind for unrecoverable source failures. A source that
// trips any of these is rejected whole; there are no partial loads.
var ErrLoad = errors.New("source load failed")

// Sentinel kinds wrapping ErrLoad so callers can match either level.
var (
	ErrNotTabular    = fmt.Errorf("%w: input is not tabular", ErrLoad)
	ErrMissingColumn = fmt.Errorf("%w: required column absent", ErrLoad)
	ErrBadTimestamp  = fmt.Errorf("%w: unparseable timestamp", ErrLoad)
)
