// Package errors provides structured error handling for amangrep.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors (bad arguments, invalid config files)
//   - 2XX: IO errors (reading a search target)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates argument or configuration errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file read errors.
	CategoryIO Category = "IO"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the run cannot continue.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates one target failed; the run continues.
	SeverityError Severity = "ERROR"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeNoQuery       = "ERR_101_NO_QUERY"
	ErrCodeNoTargets     = "ERR_102_NO_TARGETS"
	ErrCodeConfigInvalid = "ERR_103_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeFileIsDir       = "ERR_203_FILE_IS_DIR"
	ErrCodeInvalidEncoding = "ERR_204_INVALID_ENCODING"
	ErrCodeFileRead        = "ERR_205_FILE_READ"

	// Internal errors (500-599)
	ErrCodeInternal  = "ERR_501_INTERNAL"
	ErrCodeCancelled = "ERR_502_CANCELLED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_NO_QUERY"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	default:
		return CategoryInternal
	}
}

// severityFromCode determines the default severity of a code.
// Config errors always stop the run before any work starts. IO errors are
// per-target by default; callers promote them with AsFatal when a single
// target was requested.
func severityFromCode(code string) Severity {
	if categoryFromCode(code) == CategoryConfig {
		return SeverityFatal
	}
	return SeverityError
}
