package scsv

import (
	"errors"
	"fmt"
)

// Code classifies every failure this package reports.
type Code string

const (
	// CodeParse is returned when the document structure is malformed.
	CodeParse Code = "PARSE"
	// CodeCoverage is returned when declared columns and grid columns disagree.
	CodeCoverage Code = "COVERAGE"
	// CodeUnknownColumn is returned when a mutation references a column absent
	// from the annotations.
	CodeUnknownColumn Code = "UNKNOWN_COLUMN"
	// CodeMissingColumn is returned when a new row omits a declared column.
	CodeMissingColumn Code = "MISSING_COLUMN"
	// CodeIndex is returned when a mutation is given an out-of-range row index.
	CodeIndex Code = "INDEX"
	// CodeEncode is returned when a value cannot be encoded by its column type.
	CodeEncode Code = "ENCODE"
	// CodeDecode is returned when a stored cell cannot be decoded.
	CodeDecode Code = "DECODE"
	// CodeStorage is returned when reading, locking or rewriting the backing
	// file fails.
	CodeStorage Code = "STORAGE"
)

// Error is the structured error type reported by this package.
type Error struct {
	code    Code
	message string
	details map[string]any
	wrapped error
}

func errorf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// withDetail records a structured detail, such as the offending column.
func (e *Error) withDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// wrap attaches an underlying error.
func (e *Error) wrap(err error) *Error {
	e.wrapped = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

// Code returns the failure category.
func (e *Error) Code() Code {
	return e.code
}

// Details returns structured information about the failure, such as the
// offending column name or row index. May be nil.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// CodeOf returns the failure category of err, or "" when err was not produced
// by this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}
