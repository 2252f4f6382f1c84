package forms

import (
	"errors"
	"strings"
)

// Violation names one offending field and a human readable reason.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in one validation pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of the offending fields.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

// AsError wraps violations in a *ValidationError, or returns nil when there are none.
func AsError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// Violations extracts the violations carried by err, if any.
func Violations(err error) ([]Violation, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Violations, true
	}
	return nil, false
}
