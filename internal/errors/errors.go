package errors

import (
	stderrors "errors"
	"fmt"
)

// FinderError is the structured error type used across docfinder.
// It carries a stable code plus enough context to log it and to show
// the user something actionable.
type FinderError struct {
	// Code is the unique error code (e.g., "ERR_406_PATH_DENIED").
	Code string

	Message  string
	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	Retryable  bool
	Suggestion string
}

// Error implements the error interface.
func (e *FinderError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FinderError) Unwrap() error {
	return e.Cause
}

// Is matches another FinderError by code, so sentinel values built with
// New work with errors.Is.
func (e *FinderError) Is(target error) bool {
	if t, ok := target.(*FinderError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *FinderError) WithDetail(key, value string) *FinderError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *FinderError) WithSuggestion(suggestion string) *FinderError {
	e.Suggestion = suggestion
	return e
}

// New creates a FinderError. Category, severity and the retryable flag
// are derived from the code.
func New(code string, message string, cause error) *FinderError {
	return &FinderError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a FinderError from an existing error, reusing its message.
func Wrap(code string, err error) *FinderError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *FinderError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *FinderError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *FinderError {
	return New(ErrCodeInternal, message, cause)
}

// PathDenied reports a path rejected by the path guard.
func PathDenied(path, reason string) *FinderError {
	return New(ErrCodePathDenied, fmt.Sprintf("path denied: %s (%s)", path, reason), nil).
		WithDetail("path", path).
		WithDetail("reason", reason)
}

// EmbeddingUnavailable reports that the embedding backend cannot be reached.
func EmbeddingUnavailable(backend string, cause error) *FinderError {
	return New(ErrCodeEmbeddingUnavailable, fmt.Sprintf("embedding backend %s unavailable", backend), cause).
		WithDetail("backend", backend)
}

// StoreCorrupt reports an unreadable or inconsistent index store.
func StoreCorrupt(message string, cause error) *FinderError {
	return New(ErrCodeStoreCorrupt, message, cause).
		WithSuggestion("The index will be rebuilt from scratch on the next indexing run")
}

// As finds the first FinderError in err's chain.
func As(err error) (*FinderError, bool) {
	var fe *FinderError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// HasCode reports whether any FinderError in err's tree carries code.
func HasCode(err error, code string) bool {
	return stderrors.Is(err, &FinderError{Code: code})
}

// IsRetryable checks if an error in the chain is retryable.
func IsRetryable(err error) bool {
	fe, ok := As(err)
	return ok && fe.Retryable
}

// IsFatal checks if an error in the chain has fatal severity.
// Fatal errors abort the current operation.
func IsFatal(err error) bool {
	fe, ok := As(err)
	return ok && fe.Severity == SeverityFatal
}

// GetCode extracts the code of the first FinderError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if fe, ok := As(err); ok {
		return fe.Code
	}
	return ""
}

// GetCategory extracts the category of the first FinderError in the chain.
func GetCategory(err error) Category {
	if fe, ok := As(err); ok {
		return fe.Category
	}
	return ""
}
