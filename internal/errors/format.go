package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// FormatForCLI formats an error for stderr.
// Configuration errors are reported as parse problems, everything else as an
// application error, followed by an optional hint and the error code.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var ae *AmanError
	if !errors.As(err, &ae) {
		ae = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	prefix := "Application error"
	if ae.Category == CategoryConfig {
		prefix = "Problem with parsing"
	}
	sb.WriteString(fmt.Sprintf("%s: %s\n", prefix, ae.Message))

	if ae.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ae.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", ae.Code))

	return sb.String()
}

// FailureLine renders a per-target failure cause the way it appears inline in
// fan-out output.
func FailureLine(path string, err error) string {
	msg := err.Error()
	var ae *AmanError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	return fmt.Sprintf("Error when reading '%s': %s", path, msg)
}

// FormatForLog returns slog attributes describing err.
func FormatForLog(err error) []any {
	if err == nil {
		return nil
	}

	var ae *AmanError
	if !errors.As(err, &ae) {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", ae.Code),
		slog.String("message", ae.Message),
		slog.String("category", string(ae.Category)),
		slog.String("severity", string(ae.Severity)),
	}

	if ae.Cause != nil {
		attrs = append(attrs, slog.String("cause", ae.Cause.Error()))
	}

	for k, v := range ae.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}

	return attrs
}
