package template

import (
	"bytes"
	"fmt"
	"math"
)

// Validate checks the structural preconditions of generation. It never
// modifies t. Unrecognised field types are accepted.
func (t *Template) Validate() error {
	if t == nil {
		return invalid("", "nil template")
	}
	if err := t.BasePdf.validate(); err != nil {
		return err
	}
	if len(t.Schemas) == 0 {
		return invalid("schemas", "at least one page is required")
	}

	for i, page := range t.Schemas {
		seen := make(map[string]bool, len(page))
		for j, f := range page {
			path := fmt.Sprintf("schemas[%d][%d]", i, j)
			if err := f.validate(path); err != nil {
				return err
			}
			if seen[f.Name] {
				return invalid(path+".name", "duplicate field name %q", f.Name)
			}
			seen[f.Name] = true
		}
	}
	return nil
}

func (b BasePdf) validate() error {
	if b.HasPDF() {
		if !bytes.HasPrefix(b.PDF, []byte("%PDF-")) {
			return invalid("basePdf", "data is not a PDF document")
		}
		// Zero dimensions are filled in from the document itself.
		if !finite(b.Width) || b.Width < 0 {
			return invalid("basePdf.width", "must be a non-negative number, got %v", b.Width)
		}
		if !finite(b.Height) || b.Height < 0 {
			return invalid("basePdf.height", "must be a non-negative number, got %v", b.Height)
		}
		return nil
	}

	if !finite(b.Width) || b.Width <= 0 {
		return invalid("basePdf.width", "must be positive, got %v", b.Width)
	}
	if !finite(b.Height) || b.Height <= 0 {
		return invalid("basePdf.height", "must be positive, got %v", b.Height)
	}
	return nil
}

func (f Field) validate(path string) error {
	if f.Name == "" {
		return invalid(path+".name", "missing")
	}
	if f.Type == "" {
		return invalid(path+".type", "missing")
	}
	if !finite(f.Position.X) || !finite(f.Position.Y) {
		return invalid(path+".position", "coordinates must be finite")
	}
	if !finite(f.Width) || f.Width < 0 {
		return invalid(path+".width", "must be a non-negative number, got %v", f.Width)
	}
	if !finite(f.Height) || f.Height < 0 {
		return invalid(path+".height", "must be a non-negative number, got %v", f.Height)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
