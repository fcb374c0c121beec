package assemble

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// Object is the interface satisfied by every value the writer can serialize.
// The unexported method keeps the set closed.
type Object interface {
	writeTo(buf *bytes.Buffer) error
}

// Null is the PDF null object.
type Null struct{}

func (Null) writeTo(buf *bytes.Buffer) error {
	buf.WriteString("null")
	return nil
}

// Bool is a PDF boolean.
type Bool bool

func (b Bool) writeTo(buf *bytes.Buffer) error {
	buf.WriteString(strconv.FormatBool(bool(b)))
	return nil
}

// Int is a PDF integer.
type Int int64

func (i Int) writeTo(buf *bytes.Buffer) error {
	buf.WriteString(strconv.FormatInt(int64(i), 10))
	return nil
}

// Real is a PDF real number, written with at most four decimals.
type Real float64

func (r Real) writeTo(buf *bytes.Buffer) error {
	s, err := formatReal(float64(r))
	if err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

// formatReal renders v in the shortest fixed-point form with four decimals of
// precision. PDF has no representation for NaN or infinities.
func formatReal(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("non-finite number %v", v)
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s, nil
}

// Name is a PDF name, written with its leading solidus.
type Name string

func (n Name) writeTo(buf *bytes.Buffer) error {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
	return nil
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// String is a PDF literal string holding raw bytes.
type String []byte

func (s String) writeTo(buf *bytes.Buffer) error {
	buf.WriteByte('(')
	buf.Write(escapeString(s))
	buf.WriteByte(')')
	return nil
}

// escapeString escapes the string delimiters and writes every byte outside
// printable ASCII as an octal escape.
func escapeString(s []byte) []byte {
	out := make([]byte, 0, len(s)+8)
	for _, c := range s {
		switch {
		case c == '\\' || c == '(' || c == ')':
			out = append(out, '\\', c)
		case c < 0x20 || c > 0x7e:
			out = append(out, fmt.Sprintf("\\%03o", c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

// TextString encodes s as a PDF text string: plain bytes when s is ASCII,
// otherwise UTF-16BE with a byte order mark.
func TextString(s string) String {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return String(s)
	}
	out := []byte{0xfe, 0xff}
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u>>8), byte(u))
	}
	return String(out)
}

// DateString formats t as a PDF date in UTC.
func DateString(t time.Time) String {
	return String("D:" + t.UTC().Format("20060102150405") + "Z")
}

// Array is a PDF array.
type Array []Object

func (a Array) writeTo(buf *bytes.Buffer) error {
	buf.WriteByte('[')
	for i, o := range a {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if err := o.writeTo(buf); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// Dict is a PDF dictionary. Keys are written with /Type first and the rest
// in lexical order, so output does not depend on map iteration.
type Dict map[Name]Object

func (d Dict) writeTo(buf *bytes.Buffer) error {
	keys := make([]string, 0, len(d))
	for k := range d {
		if k != "Type" {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	if _, ok := d["Type"]; ok {
		keys = append([]string{"Type"}, keys...)
	}

	buf.WriteString("<<")
	for _, k := range keys {
		buf.WriteByte(' ')
		Name(k).writeTo(buf)
		buf.WriteByte(' ')
		if err := d[Name(k)].writeTo(buf); err != nil {
			return fmt.Errorf("/%s: %w", k, err)
		}
	}
	buf.WriteString(" >>")
	return nil
}

// Ref is an indirect reference to the object with the given id.
type Ref int

func (r Ref) writeTo(buf *bytes.Buffer) error {
	fmt.Fprintf(buf, "%d 0 R", int(r))
	return nil
}

// Stream is a dictionary followed by a byte sequence. /Length is set when the
// stream is written.
type Stream struct {
	Dict Dict
	Data []byte
}

func (s *Stream) writeTo(buf *bytes.Buffer) error {
	d := make(Dict, len(s.Dict)+1)
	for k, v := range s.Dict {
		d[k] = v
	}
	d["Length"] = Int(len(s.Data))
	if err := d.writeTo(buf); err != nil {
		return err
	}
	buf.WriteString("\nstream\n")
	buf.Write(s.Data)
	buf.WriteString("\nendstream")
	return nil
}

// raw is an already serialized object body, written verbatim.
type raw []byte

func (r raw) writeTo(buf *bytes.Buffer) error {
	buf.Write(r)
	return nil
}

// refs appends the ids referenced directly by o.
func refs(o Object, ids []int) []int {
	switch v := o.(type) {
	case Ref:
		ids = append(ids, int(v))
	case Array:
		for _, e := range v {
			ids = refs(e, ids)
		}
	case Dict:
		for _, k := range sortedKeys(v) {
			ids = refs(v[k], ids)
		}
	case *Stream:
		ids = refs(v.Dict, ids)
	}
	return ids
}

// renumber rewrites every reference in o through m and returns the result.
// References missing from m are left unchanged.
func renumber(o Object, m map[int]int) Object {
	switch v := o.(type) {
	case Ref:
		if id, ok := m[int(v)]; ok {
			return Ref(id)
		}
		return v
	case Array:
		out := make(Array, len(v))
		for i, e := range v {
			out[i] = renumber(e, m)
		}
		return out
	case Dict:
		out := make(Dict, len(v))
		for k, e := range v {
			out[k] = renumber(e, m)
		}
		return out
	case *Stream:
		return &Stream{Dict: renumber(v.Dict, m).(Dict), Data: v.Data}
	}
	return o
}

func sortedKeys(d Dict) []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
