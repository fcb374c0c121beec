// Package pdftpl generates PDF documents by merging a template with input
// records.
//
// A template describes page geometry in millimetres and, for every page, the
// fields to fill: their position, size and kind. Each input record is a map
// from field name to value. Generation emits one page per record and template
// page, in record order, and returns the serialized PDF.
//
//	tpl, err := template.Parse(templateJSON)
//	if err != nil {
//		return err
//	}
//	pdf, err := pdftpl.Generate(tpl, []template.Record{{"name": "John Doe"}},
//		pdftpl.WithTitle("Badges"),
//	)
//
// Text fields are drawn in Helvetica 12pt. Image and barcode fields are not
// drawn yet; they are reported through the logger and WithDiagnosticHandler
// and never fail a run.
package pdftpl

import (
	"io"

	"github.com/lvillar/pdftpl/assemble"
	"github.com/lvillar/pdftpl/template"
)

// Generate renders records over tpl and returns the PDF bytes. tpl is only
// read and may be shared by concurrent calls.
func Generate(tpl *template.Template, records []template.Record, opts ...Option) ([]byte, error) {
	out, err := generate(tpl, records, opts)
	return out, newError("Generate", err)
}

func generate(tpl *template.Template, records []template.Record, opts []Option) ([]byte, error) {
	cfg, err := newConfig(opts).assembleConfig()
	if err != nil {
		return nil, err
	}
	return assemble.Assemble(tpl, records, cfg)
}

// GenerateJSON is Generate for a template and a record array given as JSON.
// Malformed records fail with ErrInvalidInput.
func GenerateJSON(templateJSON, recordsJSON []byte, opts ...Option) ([]byte, error) {
	tpl, err := template.Parse(templateJSON)
	if err != nil {
		return nil, newError("GenerateJSON", err)
	}
	records, err := template.ParseRecords(recordsJSON)
	if err != nil {
		return nil, newError("GenerateJSON", err)
	}
	out, err := generate(tpl, records, opts)
	return out, newError("GenerateJSON", err)
}

// GenerateTo is Generate writing the PDF to w. Nothing is written if
// generation fails.
func GenerateTo(w io.Writer, tpl *template.Template, records []template.Record, opts ...Option) error {
	out, err := generate(tpl, records, opts)
	if err != nil {
		return newError("GenerateTo", err)
	}
	_, err = w.Write(out)
	return newError("GenerateTo", err)
}
