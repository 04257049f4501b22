// Package errors provides structured error types for table loading.
// Every error carries a category, code, message and retryable flag, and
// load failures additionally name the table they belong to.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline stage.
type ErrorCategory string

const (
	ErrCategoryDecode   ErrorCategory = "DECODE"
	ErrCategorySchema   ErrorCategory = "SCHEMA"
	ErrCategoryTable    ErrorCategory = "TABLE"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategoryCanceled ErrorCategory = "CANCELED"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Decode codes
	CodeMalformedContainer = "MALFORMED_CONTAINER"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"

	// Schema codes
	CodeMergeConflict   = "MERGE_CONFLICT"
	CodeInvalidOverride = "INVALID_OVERRIDE"

	// Table codes
	CodeConstructionFailed = "CONSTRUCTION_FAILED"
	CodeNonConformantBatch = "NON_CONFORMANT_BATCH"

	// Storage codes
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeOpenFailed     = "OPEN_FAILED"
	CodeListFailed     = "LIST_FAILED"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Cancellation codes
	CodeCanceled         = "CANCELED"
	CodeDeadlineExceeded = "DEADLINE_EXCEEDED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// LoadError is the structured error type used throughout the loader.
type LoadError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Table     string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *LoadError) Error() string {
	msg := e.Message
	if e.Table != "" {
		msg = fmt.Sprintf("table %q: %s", e.Table, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *LoadError) Is(target error) bool {
	var t *LoadError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new LoadError.
func New(category ErrorCategory, code, message string) *LoadError {
	return &LoadError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new LoadError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *LoadError {
	return &LoadError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *LoadError) WithDetails(details map[string]interface{}) *LoadError {
	cp := *e
	cp.Details = details
	return &cp
}

// ForTable tags err with the identity of the table whose load failed.
// A cancelled or timed-out context becomes CANCELED wherever it sits in the
// chain; otherwise a LoadError keeps its category and code and any other
// error becomes INTERNAL. Returns nil for a nil error.
func ForTable(table string, err error) error {
	if err == nil {
		return nil
	}
	if ce := canceled(err); ce != nil {
		ce.Table = table
		return ce
	}
	var le *LoadError
	if errors.As(err, &le) {
		cp := *le
		cp.Table = table
		return &cp
	}
	e := Wrap(ErrCategoryInternal, CodeUnexpected, "load failed", err)
	e.Table = table
	return e
}

func canceled(err error) *LoadError {
	switch {
	case errors.Is(err, context.Canceled):
		return Wrap(ErrCategoryCanceled, CodeCanceled, "load canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrCategoryCanceled, CodeDeadlineExceeded, "load timed out", err)
	}
	return nil
}

// IsCanceled reports whether err is a load abandoned by its caller's context.
func IsCanceled(err error) bool {
	return GetCategory(err) == ErrCategoryCanceled
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a LoadError.
func GetCategory(err error) ErrorCategory {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a LoadError.
func GetCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// GetTable extracts the table name from an error chain.
func GetTable(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Table
	}
	return ""
}

// isRetryable reports whether the caller may retry a load that failed with this code.
// Only transient storage failures qualify; decode and schema errors are deterministic.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeOpenFailed:
		return true
	case category == ErrCategoryStorage && code == CodeListFailed:
		return true
	case category == ErrCategoryCanceled && code == CodeDeadlineExceeded:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewDecodeError(code, message string, cause error) *LoadError {
	return Wrap(ErrCategoryDecode, code, message, cause)
}

func NewSchemaError(code, message string) *LoadError {
	return New(ErrCategorySchema, code, message)
}

func NewTableError(code, message string, cause error) *LoadError {
	return Wrap(ErrCategoryTable, code, message, cause)
}

func NewStorageError(code, message string, cause error) *LoadError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewConfigError(message string) *LoadError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *LoadError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
