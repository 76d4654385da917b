package record

import "errors"

var (
	// ErrNotFound is returned when no record exists for the given ID.
	ErrNotFound = errors.New("record: not found")

	// ErrConflict is returned when saving a record whose ID already
	// exists.
	ErrConflict = errors.New("record: already exists")
)
