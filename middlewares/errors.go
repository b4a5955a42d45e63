package middlewares

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/anvil/internal"
)

// ErrInvalidOption is returned by factories for malformed options.
var ErrInvalidOption = errors.New("middlewares: invalid option")

// PanicError is a panic recovered by the recover middleware.
type PanicError = internal.PanicError

// TimeoutError represents a request timeout.
type TimeoutError struct {
	Duration time.Duration // The timeout that was exceeded
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

// IsPanicError returns true if the error is a PanicError.
func IsPanicError(err error) bool {
	_, ok := internal.AsPanicError(err)
	return ok
}

// AsPanicError extracts the PanicError from an error if present.
func AsPanicError(err error) (*PanicError, bool) {
	return internal.AsPanicError(err)
}

// IsTimeoutError returns true if the error is a TimeoutError.
func IsTimeoutError(err error) bool {
	_, ok := AsTimeoutError(err)
	return ok
}

// AsTimeoutError extracts the TimeoutError from an error if present.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func invalidOption(handle, key string, err error) error {
	return fmt.Errorf("%w: %s.%s: %w", ErrInvalidOption, handle, key, err)
}

var (
	errNotFunc = errors.New("unsupported function type")
	errNotFS   = errors.New("expected an fs.FS")
)
