// Package render turns one template field and one input record into primitive
// drawing operations.
//
// Rendering is a pure function of its inputs. Fields whose kind cannot be drawn
// yet produce no operation and a Diagnostic instead of an error, so one
// unsupported field never aborts a document.
package render

import (
	"errors"
	"fmt"

	"github.com/lvillar/pdftpl/template"
)

const (
	// DefaultFont is the built-in font every text field is drawn with.
	DefaultFont = "Helvetica"
	// DefaultFontSize is the text size in points.
	DefaultFontSize = 12.0
)

var (
	// ErrUnsupportedFieldKind marks diagnostics for fields that were skipped.
	ErrUnsupportedFieldKind = errors.New("render: unsupported field kind")
	// ErrTextSubstituted marks diagnostics for characters the built-in font
	// encoding cannot represent.
	ErrTextSubstituted = errors.New("render: text characters substituted")
)

// Op is a primitive drawing operation in PDF user space (points, bottom-left
// origin).
type Op interface {
	isOp()
}

// ShowText draws Text with its baseline starting at (X, Y).
type ShowText struct {
	Font string
	Size float64
	X, Y float64
	Text string
}

func (ShowText) isOp() {}

// Diagnostic reports a non-fatal anomaly found while rendering a field.
type Diagnostic struct {
	Field  string
	Type   string // the field's kind tag as written in the template
	Detail string
	Err    error // ErrUnsupportedFieldKind or ErrTextSubstituted
}

func (d Diagnostic) Error() string {
	msg := fmt.Sprintf("field %q (%s): %v", d.Field, d.Type, d.Err)
	if d.Detail != "" {
		msg += ": " + d.Detail
	}
	return msg
}

func (d Diagnostic) Unwrap() error { return d.Err }

// handler renders a field whose value has already been resolved. value may be
// empty for kinds that report regardless of the value.
type handler func(f template.Field, value string, page template.BasePdf) ([]Op, []Diagnostic)

var handlers = map[template.Kind]handler{
	template.KindUnknown:       renderUnknown,
	template.KindText:          renderText,
	template.KindImage:         renderImage,
	template.KindQRCode:        renderBarcode,
	template.KindJapanPost:     renderBarcode,
	template.KindEAN13:         renderBarcode,
	template.KindEAN8:          renderBarcode,
	template.KindCode39:        renderBarcode,
	template.KindCode128:       renderBarcode,
	template.KindNW7:           renderBarcode,
	template.KindITF14:         renderBarcode,
	template.KindUPCA:          renderBarcode,
	template.KindUPCE:          renderBarcode,
	template.KindGS1DataMatrix: renderBarcode,
	template.KindPDF417:        renderBarcode,
}

// Render resolves the value of f from rec and draws it on a page of the given
// geometry. Neither argument is modified.
func Render(f template.Field, rec template.Record, page template.BasePdf) ([]Op, []Diagnostic) {
	h, ok := handlers[f.Kind()]
	if !ok {
		h = renderUnknown
	}
	return h(f, rec.Lookup(f), page)
}

func renderText(f template.Field, value string, page template.BasePdf) ([]Op, []Diagnostic) {
	if value == "" {
		return nil, nil
	}
	x, y := Transform(f.Position, f.Height, page.Height)
	return []Op{ShowText{
		Font: DefaultFont,
		Size: DefaultFontSize,
		X:    MMToPt(x),
		Y:    MMToPt(y),
		Text: value,
	}}, checkEncodable(f.Name, f.Type, value)
}

func renderImage(f template.Field, value string, _ template.BasePdf) ([]Op, []Diagnostic) {
	detail := "image drawing is not implemented"
	if value != "" {
		detail += "; " + probeImage(value)
	}
	return nil, []Diagnostic{unsupported(f, detail)}
}

func renderBarcode(f template.Field, value string, _ template.BasePdf) ([]Op, []Diagnostic) {
	detail := f.Kind().String() + " drawing is not implemented"
	if value != "" {
		detail += "; " + probeBarcode(f.Kind(), value)
	}
	return nil, []Diagnostic{unsupported(f, detail)}
}

func renderUnknown(f template.Field, _ string, _ template.BasePdf) ([]Op, []Diagnostic) {
	return nil, []Diagnostic{unsupported(f, "no renderer for this type")}
}

func unsupported(f template.Field, detail string) Diagnostic {
	return Diagnostic{
		Field:  f.Name,
		Type:   f.Type,
		Detail: detail,
		Err:    ErrUnsupportedFieldKind,
	}
}
