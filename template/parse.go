package template

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rawField mirrors Field with pointers so that missing keys can be told apart
// from zero values.
type rawField struct {
	Name     *string   `json:"name"`
	Type     *string   `json:"type"`
	Position *Position `json:"position"`
	Width    *float64  `json:"width"`
	Height   *float64  `json:"height"`
	Content  *string   `json:"content"`
}

type rawBase struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type rawTemplate struct {
	BasePdf json.RawMessage   `json:"basePdf"`
	Schemas []json.RawMessage `json:"schemas"`
}

// Parse decodes a JSON template and validates it. Every failure matches
// ErrInvalidTemplate.
//
// Each entry of "schemas" is either an array of fields carrying a "name" key,
// or an object keyed by field name; object keys keep their document order.
func Parse(data []byte) (*Template, error) {
	var raw rawTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON", Err: err}
	}

	tpl := &Template{}
	base, err := parseBase(raw.BasePdf)
	if err != nil {
		return nil, err
	}
	tpl.BasePdf = base

	if raw.Schemas == nil {
		return nil, invalid("schemas", "missing")
	}
	tpl.Schemas = make([][]Field, 0, len(raw.Schemas))
	for i, page := range raw.Schemas {
		path := fmt.Sprintf("schemas[%d]", i)
		fields, err := parsePage(path, page)
		if err != nil {
			return nil, err
		}
		tpl.Schemas = append(tpl.Schemas, fields)
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func parseBase(data json.RawMessage) (BasePdf, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return BasePdf{}, invalid("basePdf", "missing")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return BasePdf{}, &ValidationError{Path: "basePdf", Reason: "malformed string", Err: err}
		}
		pdf, err := DecodePDFDataURI(s)
		if err != nil {
			return BasePdf{}, &ValidationError{Path: "basePdf", Reason: "not a base64 PDF", Err: err}
		}
		return BasePdf{PDF: pdf}, nil
	}

	var rb rawBase
	if err := json.Unmarshal(data, &rb); err != nil {
		return BasePdf{}, &ValidationError{Path: "basePdf", Reason: "malformed object", Err: err}
	}
	if rb.Width == nil {
		return BasePdf{}, invalid("basePdf.width", "missing")
	}
	if rb.Height == nil {
		return BasePdf{}, invalid("basePdf.height", "missing")
	}
	return BasePdf{Width: *rb.Width, Height: *rb.Height}, nil
}

// DecodePDFDataURI decodes "data:application/pdf;base64,..." or bare base64.
func DecodePDFDataURI(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

func parsePage(path string, data json.RawMessage) ([]Field, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, invalid(path, "empty page")
	}

	switch data[0] {
	case '[':
		var raws []rawField
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, &ValidationError{Path: path, Reason: "malformed page", Err: err}
		}
		fields := make([]Field, 0, len(raws))
		for j, rf := range raws {
			f, err := rf.field(fmt.Sprintf("%s[%d]", path, j))
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return fields, nil
	case '{':
		return parseKeyedPage(path, data)
	default:
		return nil, invalid(path, "page must be an array or an object")
	}
}

// parseKeyedPage decodes the object form, {"name": {...}, ...}, in key order.
func parseKeyedPage(path string, data json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, &ValidationError{Path: path, Reason: "malformed page", Err: err}
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ValidationError{Path: path, Reason: "malformed page", Err: err}
		}
		key, _ := tok.(string)
		fpath := fmt.Sprintf("%s.%s", path, key)

		var rf rawField
		if err := dec.Decode(&rf); err != nil {
			return nil, &ValidationError{Path: fpath, Reason: "malformed field", Err: err}
		}
		if rf.Name == nil {
			rf.Name = &key
		}
		f, err := rf.field(fpath)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (rf rawField) field(path string) (Field, error) {
	if rf.Name == nil {
		return Field{}, invalid(path+".name", "missing")
	}
	if rf.Type == nil {
		return Field{}, invalid(path+".type", "missing")
	}
	if rf.Position == nil {
		return Field{}, invalid(path+".position", "missing")
	}

	f := Field{
		Name:     *rf.Name,
		Type:     *rf.Type,
		Position: *rf.Position,
	}
	if rf.Width != nil {
		f.Width = *rf.Width
	}
	if rf.Height != nil {
		f.Height = *rf.Height
	}
	if rf.Content != nil {
		f.Content = *rf.Content
	}
	return f, nil
}

// ParseRecords decodes a JSON array of records. String values are taken as-is;
// numbers and booleans are formatted; null values are dropped. Failures match
// ErrInvalidInput.
func ParseRecords(data []byte) ([]Record, error) {
	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec := make(Record, len(raw))
		for key, v := range raw {
			switch val := v.(type) {
			case nil:
			case string:
				rec[key] = val
			case float64:
				rec[key] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				rec[key] = strconv.FormatBool(val)
			default:
				return nil, fmt.Errorf("%w: record %d: value of %q is not a scalar", ErrInvalidInput, i, key)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
