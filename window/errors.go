package window

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ValidationError reports a window spec or function that cannot be built.
// It is returned before any partitioning or ordering work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid window: " + e.Reason
	}
	return fmt.Sprintf("invalid window: %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...interface{}) error {
	return errors.WithStack(&ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// EvaluationError reports a failure while evaluating a valid window against a
// batch, such as a missing column or a RANGE offset over text.
type EvaluationError struct {
	Function string
	Column   string
	Reason   string
	Cause    error
}

func (e *EvaluationError) Error() string {
	msg := "evaluating " + e.Function
	if e.Column != "" {
		msg += fmt.Sprintf(" on column %q", e.Column)
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

func evaluationErrorf(fn, column, format string, args ...interface{}) error {
	return errors.WithStack(&EvaluationError{
		Function: fn,
		Column:   column,
		Reason:   fmt.Sprintf(format, args...),
	})
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsEvaluationError reports whether err carries an *EvaluationError.
func IsEvaluationError(err error) bool {
	var target *EvaluationError
	return errors.As(err, &target)
}
