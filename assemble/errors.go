package assemble

import (
	"errors"
	"fmt"
)

// Sentinel errors for assembly failures.
var (
	ErrEncoding  = errors.New("pdftpl: encoding failure")
	ErrFinalized = errors.New("pdftpl: document is finalized")
)

// EncodingError reports a failure to serialize part of the document.
type EncodingError struct {
	Op  string // what was being encoded, e.g. "object 7", "content stream"
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assemble: encoding %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("assemble: encoding %s: unknown error", e.Op)
}

// Unwrap lets errors.Is match both ErrEncoding and the underlying cause.
func (e *EncodingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEncoding}
	}
	return []error{ErrEncoding, e.Err}
}

func newEncodingError(op string, err error) *EncodingError {
	return &EncodingError{Op: op, Err: err}
}
