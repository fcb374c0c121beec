// Package template holds the in-memory model of a document template: the page
// geometry and the per-page placement of named, typed fields.
//
// Templates are JSON with a "basePdf" and a "schemas" key. Lengths are
// millimetres and positions are measured from the top-left corner of the page.
//
// Example JSON:
//
//	{
//	  "basePdf": {"width": 210, "height": 297},
//	  "schemas": [[
//	    {"name": "name", "type": "text", "position": {"x": 20, "y": 20}, "width": 100, "height": 10}
//	  ]]
//	}
package template

// Template is a page geometry plus an ordered list of page groups. Each page
// group is an ordered list of fields; the order is the paint order.
//
// A Template is read-only once parsed and may be shared by concurrent
// generations.
type Template struct {
	BasePdf BasePdf   `json:"basePdf"`
	Schemas [][]Field `json:"schemas"`
}

// BasePdf describes the page every record is laid out on. Either Width and
// Height are set, or PDF holds an existing document whose pages are drawn
// behind the fields. With a PDF base, zero dimensions are taken from the
// first page of that document.
type BasePdf struct {
	Width  float64 `json:"width"`  // mm
	Height float64 `json:"height"` // mm
	PDF    []byte  `json:"-"`
}

// HasPDF reports whether the base is an existing PDF document.
func (b BasePdf) HasPDF() bool { return len(b.PDF) > 0 }

// Position is a point in millimetres from the top-left corner of the page.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Field is one named, typed placeholder on a page.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`  // mm, reserved for wrapping and clipping
	Height   float64  `json:"height"` // mm
	Content  string   `json:"content,omitempty"`
}

// Kind returns the field's kind; unrecognised tags yield KindUnknown.
func (f Field) Kind() Kind {
	return ParseKind(f.Type)
}

// Record maps field names to the literal values substituted for them.
type Record map[string]string

// Lookup resolves the value drawn for f: the record value when the record
// names the field, even if empty, otherwise the field's literal content. An
// empty result means nothing is drawn.
func (r Record) Lookup(f Field) string {
	if v, ok := r[f.Name]; ok {
		return v
	}
	return f.Content
}

// PageCount returns the number of page groups, i.e. output pages per record.
func (t *Template) PageCount() int {
	return len(t.Schemas)
}

// Fields returns the number of fields over all page groups.
func (t *Template) Fields() int {
	n := 0
	for _, page := range t.Schemas {
		n += len(page)
	}
	return n
}
