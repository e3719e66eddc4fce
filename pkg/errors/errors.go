package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category independently of its message
type ErrorCode string

const (
	ErrUnknown ErrorCode = "UNKNOWN"

	// ErrPathNotFound means a tree root did not exist when it was cataloged
	ErrPathNotFound ErrorCode = "PATH_NOT_FOUND"
	// ErrComparisonFailed means a file vanished or became unreadable mid-comparison
	ErrComparisonFailed ErrorCode = "COMPARISON_FAILED"
	// ErrLinkCreationFailed means the platform refused to create a symlink
	ErrLinkCreationFailed ErrorCode = "LINK_CREATION_FAILED"
	// ErrValidation is an input problem caught before the core runs
	ErrValidation ErrorCode = "VALIDATION"
	// ErrConfig covers config file load/parse failures
	ErrConfig ErrorCode = "CONFIG"
)

// DirlinkError is a structured error carrying a code and optional details
type DirlinkError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DirlinkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DirlinkError) Unwrap() error {
	return e.Wrapped
}

// Is matches any DirlinkError with the same code
func (e *DirlinkError) Is(target error) bool {
	var targetErr *DirlinkError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DirlinkError
func New(code ErrorCode, message string) *DirlinkError {
	return &DirlinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DirlinkError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DirlinkError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. Returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *DirlinkError {
	if err == nil {
		return nil
	}
	return &DirlinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps err with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DirlinkError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *DirlinkError) WithDetail(key string, value interface{}) *DirlinkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode reports whether any error in err's chain carries code
func IsErrorCode(err error, code ErrorCode) bool {
	var de *DirlinkError
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Wrapped
			continue
		}
		return false
	}
	return false
}

// GetErrorCode returns the outermost code in err's chain, or ErrUnknown
func GetErrorCode(err error) ErrorCode {
	var de *DirlinkError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details of the outermost DirlinkError, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var de *DirlinkError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
