package artifact

import (
	"errors"
)

// Sentinel kinds for artifact errors.
var (
	// ErrArtifact is the base error all artifact failures wrap.
	ErrArtifact = errors.New("model artifact error")

	// ErrUnknownVersion marks a document whose schema version this build does
	// not understand.
	ErrUnknownVersion = errors.New("unknown artifact schema version")

	// ErrInvalidArtifact marks a document that parsed but fails validation.
	ErrInvalidArtifact = errors.New("invalid artifact")
)
