package extension

import "errors"

// Registry errors.
var (
	// ErrDuplicateID is returned when registering an id that is already present.
	ErrDuplicateID = errors.New("extension id already registered")

	// ErrEmptyID is returned when registering a definition without an id.
	ErrEmptyID = errors.New("extension id is empty")

	// ErrInvalidSurface is returned when registering a definition targeting
	// an unknown surface.
	ErrInvalidSurface = errors.New("invalid surface")
)
