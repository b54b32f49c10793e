package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// FileSystem errors
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"
	ErrFileRead        ErrorCode = "FILE_READ"
	ErrFileWrite       ErrorCode = "FILE_WRITE"
	ErrDirCreate       ErrorCode = "DIR_CREATE"
	ErrNotADirectory   ErrorCode = "NOT_A_DIRECTORY"
	ErrBackup          ErrorCode = "BACKUP"
	ErrChecksumDrift   ErrorCode = "CHECKSUM_CONFLICT"
	ErrRollback        ErrorCode = "ROLLBACK"
	ErrMergeStrategy   ErrorCode = "MERGE_STRATEGY"
	ErrExporterMissing ErrorCode = "EXPORTER_NOT_FOUND"
	ErrExportFailed    ErrorCode = "EXPORT_FAILED"
	ErrSyncFailed      ErrorCode = "SYNC_FAILED"

	// IR errors
	ErrIRLoad    ErrorCode = "IR_LOAD"
	ErrIRInvalid ErrorCode = "IR_INVALID"
)

// AlignError represents a structured error with code and details
type AlignError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *AlignError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AlignError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *AlignError) Is(target error) bool {
	var targetErr *AlignError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new AlignError with the given code and message
func New(code ErrorCode, message string) *AlignError {
	return &AlignError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new AlignError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AlignError {
	return &AlignError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an AlignError
func Wrap(err error, code ErrorCode, message string) *AlignError {
	if err == nil {
		return nil
	}
	return &AlignError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AlignError {
	if err == nil {
		return nil
	}
	return &AlignError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *AlignError) WithDetail(key string, value interface{}) *AlignError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *AlignError) WithDetails(details map[string]interface{}) *AlignError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var alignErr *AlignError
	if errors.As(err, &alignErr) {
		return alignErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an AlignError
func GetErrorCode(err error) ErrorCode {
	var alignErr *AlignError
	if errors.As(err, &alignErr) {
		return alignErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an AlignError
func GetErrorDetails(err error) map[string]interface{} {
	var alignErr *AlignError
	if errors.As(err, &alignErr) {
		return alignErr.Details
	}
	return nil
}
