package repositories

import "errors"

// Sentinel errors shared by the repository layer. Services translate these
// into user-facing error codes.
var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when an optimistic version check fails:
	// another writer updated the row between read and write.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicate is returned when a uniqueness constraint is violated
	ErrDuplicate = errors.New("duplicate entry")
)

// pq unique_violation error code
const uniqueViolation = "23505"
