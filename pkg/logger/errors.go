package logger

import "errors"

var (
	// ErrMissingFilename is returned when a file adapter has no filename.
	ErrMissingFilename = errors.New("logger: missing filename")

	// ErrOpenFile is returned when a log file cannot be opened.
	ErrOpenFile = errors.New("logger: failed to open log file")
)
