package loader

import "errors"

var (
	// ErrEmptyName is returned when registering under an empty name.
	ErrEmptyName = errors.New("loader: empty name")

	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("loader: duplicate name")

	// ErrReadDir is returned when a directory cannot be scanned.
	ErrReadDir = errors.New("loader: failed to read directory")
)
