package duckdb

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of DuckDB errors.
type ErrorType int

const (
	// ErrGeneric is a generic error.
	ErrGeneric ErrorType = iota
	// ErrConnection is a connection error.
	ErrConnection
	// ErrPrepare is a statement preparation error.
	ErrPrepare
	// ErrExec is a statement execution error.
	ErrExec
	// ErrQuery is a query error. The message is the engine's own error text.
	ErrQuery
	// ErrType is a type conversion error.
	ErrType
	// ErrBind is a parameter binding error.
	ErrBind
	// ErrAppender is an appender error.
	ErrAppender
	// ErrTransaction is a transaction error.
	ErrTransaction
	// ErrBadArgument is a caller contract violation, such as a value of the
	// wrong Go type handed to an appender column.
	ErrBadArgument
	// ErrRange is a value that does not fit the declared column type.
	ErrRange
	// ErrIndex is a column or row index outside the result's bounds.
	ErrIndex
	// ErrResource is an operation on a handle that was already destroyed.
	ErrResource
)

// Error is a DuckDB-specific error type.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("duckdb: %s", e.Message)
}

// NewError creates a new Error.
func NewError(typ ErrorType, message string) *Error {
	return &Error{
		Type:    typ,
		Message: message,
	}
}

// IsError checks if an error is of a specific type.
func IsError(err error, typ ErrorType) bool {
	var duckErr *Error
	if !errors.As(err, &duckErr) {
		return false
	}
	return duckErr.Type == typ
}

// errClosed builds the error returned by operations on destroyed handles.
func errClosed(what string) *Error {
	return NewError(ErrResource, what+" is closed")
}
