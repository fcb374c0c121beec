package template

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTemplate is matched by every template validation failure.
	ErrInvalidTemplate = errors.New("pdftpl: invalid template")
	// ErrInvalidInput is matched by record decoding and option failures.
	ErrInvalidInput = errors.New("pdftpl: invalid input")
)

// ValidationError reports a structural problem in a template. Path locates the
// offending element, e.g. "schemas[0][2].position".
type ValidationError struct {
	Path   string
	Reason string
	Err    error // optional cause, e.g. a JSON syntax error
}

func (e *ValidationError) Error() string {
	msg := "template: "
	if e.Path != "" {
		msg += e.Path + ": "
	}
	msg += e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the cause and ErrInvalidTemplate to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidTemplate, e.Err}
	}
	return []error{ErrInvalidTemplate}
}

func invalid(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
