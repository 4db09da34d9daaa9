package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrCaseSyntax ErrorType = iota
	ErrLoad
	ErrRun
	ErrTimeout
	ErrConfig
	ErrFileOp
	ErrSigning
	ErrPackaging
	ErrDiff
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrCaseSyntax:
		return "CaseSyntax"
	case ErrLoad:
		return "Load"
	case ErrRun:
		return "Run"
	case ErrTimeout:
		return "Timeout"
	case ErrConfig:
		return "Config"
	case ErrFileOp:
		return "FileOp"
	case ErrSigning:
		return "Signing"
	case ErrPackaging:
		return "Packaging"
	case ErrDiff:
		return "Diff"
	default:
		return "Unknown"
	}
}

// ItestError represents an error raised by any itest component.
// Subject names the case file, image or package the error is about.
type ItestError struct {
	Type    ErrorType
	Subject string
	Err     error
}

// Error implements the error interface
func (e *ItestError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Subject, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *ItestError) Unwrap() error {
	return e.Err
}

// NewError is a shorthand for building an ItestError.
func NewError(t ErrorType, subject string, err error) *ItestError {
	return &ItestError{Type: t, Subject: subject, Err: err}
}

// IsType reports whether err wraps an ItestError of the given type.
func IsType(err error, t ErrorType) bool {
	var ie *ItestError
	for err != nil {
		if !errors.As(err, &ie) {
			return false
		}
		if ie.Type == t {
			return true
		}
		err = ie.Err
	}
	return false
}
