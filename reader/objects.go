// Package reader parses PDF files back into objects, pages and content stream
// operations.
//
// It understands what pdftpl writes and the common subset of other producers:
// classic cross-reference tables (including incremental updates), indirect
// objects, and FlateDecode, ASCIIHexDecode and ASCII85Decode streams. Cross-
// reference streams and encrypted files are rejected.
package reader

import (
	"fmt"
	"strconv"
	"unicode/utf16"
)

// Object is the interface satisfied by all PDF object types.
// The unexported method prevents external types from implementing it.
type Object interface {
	pdfObject()
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) pdfObject()     {}
func (Null) String() string { return "null" }

// Boolean represents a PDF boolean value.
type Boolean bool

func (Boolean) pdfObject()       {}
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// Integer represents a PDF integer value.
type Integer int64

func (Integer) pdfObject()       {}
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real value.
type Real float64

func (Real) pdfObject()       {}
func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// Name represents a PDF name object, without its leading solidus.
type Name string

func (Name) pdfObject()       {}
func (n Name) String() string { return "/" + string(n) }

// String represents a PDF string (literal or hexadecimal).
type String struct {
	Value []byte
	IsHex bool
}

func (String) pdfObject() {}
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%x>", s.Value)
	}
	return fmt.Sprintf("(%s)", s.Value)
}

// Text decodes s as a PDF text string: UTF-16BE when it starts with a byte
// order mark, bytes as Latin-1 otherwise.
func (s String) Text() string {
	v := s.Value
	if len(v) >= 2 && v[0] == 0xfe && v[1] == 0xff {
		units := make([]uint16, 0, (len(v)-2)/2)
		for i := 2; i+1 < len(v); i += 2 {
			units = append(units, uint16(v[i])<<8|uint16(v[i+1]))
		}
		return string(utf16.Decode(units))
	}
	runes := make([]rune, len(v))
	for i, b := range v {
		runes[i] = rune(b)
	}
	return string(runes)
}

// Array represents a PDF array of objects.
type Array []Object

func (Array) pdfObject()       {}
func (a Array) String() string { return fmt.Sprintf("[array len=%d]", len(a)) }

// Dict represents a PDF dictionary mapping names to objects.
type Dict map[Name]Object

func (Dict) pdfObject()       {}
func (d Dict) String() string { return fmt.Sprintf("<<dict len=%d>>", len(d)) }

// GetName returns the value of a name entry, or empty string if not found.
func (d Dict) GetName(key Name) Name {
	n, _ := d[key].(Name)
	return n
}

// GetInt returns the value of an integer entry.
func (d Dict) GetInt(key Name) (int64, bool) {
	switch n := d[key].(type) {
	case Integer:
		return int64(n), true
	case Real:
		return int64(n), true
	}
	return 0, false
}

// GetDict returns a direct sub-dictionary, or nil.
func (d Dict) GetDict(key Name) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// GetArray returns a direct array entry, or nil.
func (d Dict) GetArray(key Name) Array {
	arr, _ := d[key].(Array)
	return arr
}

// Stream represents a PDF stream object (dictionary + encoded data).
type Stream struct {
	Dict Dict
	Data []byte // as stored in the file, possibly compressed
}

func (Stream) pdfObject()       {}
func (s Stream) String() string { return fmt.Sprintf("<<stream len=%d>>", len(s.Data)) }

// Reference represents an indirect object reference (e.g., "10 0 R").
type Reference struct {
	Number     int
	Generation int
}

func (Reference) pdfObject() {}
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// Keyword is a bare word that is not an object, such as "obj" in a file or an
// operator in a content stream.
type Keyword string

func (Keyword) pdfObject()       {}
func (k Keyword) String() string { return string(k) }

// Number returns the value of a numeric object.
func Number(o Object) (float64, bool) {
	switch n := o.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}
