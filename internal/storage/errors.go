package storage

import "errors"

// Export sink errors. Sinks are append-only: a run is written once.
var (
	// ErrNotFound is returned when no export exists for a run ID.
	ErrNotFound = errors.New("export not found")

	// ErrDuplicateKey is returned when a run ID has already been exported.
	ErrDuplicateKey = errors.New("duplicate key: run already exported")

	// ErrInvalidInput is returned when an export fails validation before any write.
	ErrInvalidInput = errors.New("invalid export")
)
