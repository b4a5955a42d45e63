package internal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRootPathRequired  = errors.New("anvil: root path is required")
	ErrNotLoaded         = errors.New("anvil: application is not loaded")
	ErrUnknownController = errors.New("anvil: unknown controller")
	ErrUnknownService    = errors.New("anvil: unknown service")
	ErrUnknownModel      = errors.New("anvil: unknown model")
	ErrUnknownMiddleware = errors.New("anvil: unknown middleware")
	ErrInvalidMiddleware = errors.New("anvil: invalid middleware config")
	ErrNoDatabase        = errors.New("anvil: no db adapter configured")
	ErrNoCache           = errors.New("anvil: no cache adapter configured")
	ErrStartTimeout      = errors.New("waiting for start server timeout")
	ErrWorkerListening   = errors.New("anvil: worker already started")
)

// HTTPError is an error that carries an HTTP status.
type HTTPError struct {
	// Err is the cause, logged but never shown to clients.
	Err       error
	Message   string
	Detail    string
	ErrorCode string
	RequestID string
	Code      int
}

func (e *HTTPError) Error() string { return e.Message }
func (e *HTTPError) Unwrap() error { return e.Err }

func (e *HTTPError) StatusCode() int    { return e.Code }
func (e *HTTPError) StatusText() string { return http.StatusText(e.Code) }

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError. An empty message uses the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) { e.Detail = detail }
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) { e.ErrorCode = code }
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) { e.RequestID = id }
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) { e.Err = err }
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusMethodNotAllowed, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

// AsHTTPError finds an HTTPError in the chain of err.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// PanicError is a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// AsPanicError finds a PanicError in the chain of err.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
