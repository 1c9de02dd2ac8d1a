package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrIsDirectory is returned by readers when a target path names a directory.
var ErrIsDirectory = errors.New("is a directory")

// ErrInvalidEncoding is returned when a target's contents are not valid UTF-8.
var ErrInvalidEncoding = errors.New("stream did not contain valid UTF-8")

// AmanError is the structured error type for amangrep.
// It carries enough context to be printed to the user, logged, or emitted
// inline as a per-target failure cause.
type AmanError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AmanError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AmanError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *AmanError) Is(target error) bool {
	if t, ok := target.(*AmanError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *AmanError) WithDetail(key, value string) *AmanError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *AmanError) WithSuggestion(suggestion string) *AmanError {
	e.Suggestion = suggestion
	return e
}

// AsFatal promotes the error to fatal severity.
func (e *AmanError) AsFatal() *AmanError {
	e.Severity = SeverityFatal
	return e
}

// New creates a new AmanError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *AmanError {
	return &AmanError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an AmanError from an existing error.
// The error's message becomes the AmanError message.
func Wrap(code string, err error) *AmanError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AmanError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AmanError {
	return New(ErrCodeInternal, message, cause)
}

// NoQuery is returned when no query argument was supplied.
func NoQuery() *AmanError {
	return New(ErrCodeNoQuery, "Specify a query string", nil).
		WithSuggestion("Usage: amangrep <query> <file>...")
}

// NoTargets is returned when no file path was supplied.
func NoTargets() *AmanError {
	return New(ErrCodeNoTargets, "Specify at least one file path.", nil).
		WithSuggestion("Usage: amangrep <query> <file>...")
}

// ReadError classifies a failure to read path into a structured error.
// The message is the underlying cause; the path is kept as a detail.
func ReadError(path string, err error) *AmanError {
	if err == nil {
		return nil
	}

	var ae *AmanError
	if errors.As(err, &ae) {
		return ae.WithDetail("path", path)
	}

	code := ErrCodeFileRead
	suggestion := ""
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = ErrCodeFileNotFound
		suggestion = "Check that the path exists"
	case errors.Is(err, fs.ErrPermission):
		code = ErrCodeFilePermission
		suggestion = "Check the file permissions"
	case errors.Is(err, ErrIsDirectory):
		code = ErrCodeFileIsDir
		suggestion = "Pass files, not directories"
	case errors.Is(err, ErrInvalidEncoding):
		code = ErrCodeInvalidEncoding
	}

	e := New(code, err.Error(), err).WithDetail("path", path)
	if suggestion != "" {
		e.Suggestion = suggestion
	}
	return e
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the run with a non-zero exit status.
func IsFatal(err error) bool {
	var ae *AmanError
	if errors.As(err, &ae) {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an AmanError.
// Returns empty string if not an AmanError.
func GetCode(err error) string {
	var ae *AmanError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AmanError.
// Returns empty string if not an AmanError.
func GetCategory(err error) Category {
	var ae *AmanError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ""
}
