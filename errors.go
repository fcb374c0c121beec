package pdftpl

import (
	"fmt"

	"github.com/lvillar/pdftpl/assemble"
	"github.com/lvillar/pdftpl/template"
)

// Sentinel errors for the generation failure classes. Generation failures
// match exactly one of them with errors.Is; write errors from GenerateTo are
// returned wrapped but otherwise unchanged.
var (
	// ErrInvalidTemplate reports a structurally invalid template or base PDF.
	ErrInvalidTemplate = template.ErrInvalidTemplate
	// ErrInvalidInput reports records or options that cannot be used.
	ErrInvalidInput = template.ErrInvalidInput
	// ErrEncoding reports a failure to serialize the document.
	ErrEncoding = assemble.ErrEncoding
	// ErrFinalized reports use of a document after it was serialized.
	ErrFinalized = assemble.ErrFinalized
)

// Error represents an error that occurred during a specific operation.
// It wraps an underlying error and includes the operation name for context.
type Error struct {
	Op  string // operation name, e.g. "Generate", "GenerateJSON"
	Err error  // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdftpl.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdftpl.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with operation context, or returns nil.
func newError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
