// Package sentinel holds the storage-level facts that stores report and
// services translate into domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means the record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means a conditional update matched no row in the expected status.
	ErrInvalidState = errors.New("invalid state")
)
