package router

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is returned when a rule pattern cannot be compiled.
	ErrInvalidPattern = errors.New("router: invalid pattern")

	// ErrInvalidRule is returned when a rule tuple has the wrong shape.
	ErrInvalidRule = errors.New("router: invalid rule")

	// ErrInvalidGroup is returned when a rule group misses its rules list.
	ErrInvalidGroup = errors.New("router: invalid rule group")

	// ErrUnsupportedTable is returned when the route table source has an unknown type.
	ErrUnsupportedTable = errors.New("router: unsupported table type")

	// ErrUnsupportedFormat is returned when a router file has an unknown extension.
	ErrUnsupportedFormat = errors.New("router: unsupported file format")
)

// CompileError reports which entry of a route table failed to compile.
// Location is a dotted path such as "[2]" or "admin.rules[0]".
type CompileError struct {
	Err      error
	Location string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("router: compile %s: %v", e.Location, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
