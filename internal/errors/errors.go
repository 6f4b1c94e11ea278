package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context, keeping the code of the
// innermost AppError if there is one
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode attaches a code to an error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error chain contains an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code
func HasCode(err error, code string) bool {
	return err != nil && GetCode(err) == code
}

// Predefined error codes
const (
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeUnsupportedMode   = "UNSUPPORTED_MODE"
	CodeParseError        = "PARSE_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConnectionError   = "CONNECTION_ERROR"
	CodeNoNumericColumns  = "NO_NUMERIC_COLUMNS"
	CodeDegenerateColumn  = "DEGENERATE_COLUMN"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common error constructors
func UnsupportedFormat(format string) *AppError {
	return Newf(CodeUnsupportedFormat, "unsupported format: %q", format)
}

func UnsupportedMode(mode string) *AppError {
	return Newf(CodeUnsupportedMode, "unsupported mode: %q", mode)
}

func ParseError(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeParseError,
		Message: fmt.Sprintf("failed to parse %s", source),
		Cause:   cause,
	}
}

func NotFound(resource string) *AppError {
	return Newf(CodeNotFound, "%s not found", resource)
}

func ConnectionError(target string, cause error) *AppError {
	return &AppError{
		Code:    CodeConnectionError,
		Message: fmt.Sprintf("%s connection failed", target),
		Cause:   cause,
	}
}

func NoNumericColumns() *AppError {
	return New(CodeNoNumericColumns, "no numeric columns found in table")
}

func DegenerateColumn(column, reason string) *AppError {
	return Newf(CodeDegenerateColumn, "column %q cannot be rescaled: %s", column, reason)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
