package cache

import "errors"

// Store errors. Codec errors wrap the encoding/json error.
var (
	ErrNotFound  = errors.New("cache: miss")
	ErrClosed    = errors.New("cache: store closed")
	ErrMarshal   = errors.New("cache: encode value")
	ErrUnmarshal = errors.New("cache: decode value")
)
