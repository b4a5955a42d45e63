package config

import "errors"

var (
	// ErrInvalidKey is returned by Set for empty keys or keys with empty segments.
	ErrInvalidKey = errors.New("config: invalid key")

	// ErrUnsupportedFormat is returned when a file extension has no decoder.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")

	// ErrDecode is returned when a config file cannot be parsed.
	ErrDecode = errors.New("config: failed to decode file")

	// ErrMerge is returned when two mappings cannot be merged.
	ErrMerge = errors.New("config: failed to merge")

	// ErrInvalidAdapter is returned for malformed adapter sections.
	ErrInvalidAdapter = errors.New("config: invalid adapter")

	// ErrUnknownHandle is returned when an adapter handle is not registered.
	ErrUnknownHandle = errors.New("config: unknown adapter handle")
)
