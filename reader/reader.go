package reader

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// ErrEncrypted is returned for files with an /Encrypt dictionary.
var ErrEncrypted = errors.New("reader: encrypted documents are not supported")

// Document represents a parsed PDF document.
type Document struct {
	Version string // from the file header, e.g. "1.7"
	xref    xrefTable
	trailer Dict
	data    []byte
	cache   map[int]Object
	pages   []*Page
}

// Open parses the PDF file at filename.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reader: opening %s: %w", filename, err)
	}
	return Parse(data)
}

// ReadFrom reads r to the end and parses it.
func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: reading input: %w", err)
	}
	return Parse(data)
}

// Parse builds a Document from the bytes of a PDF file. data must not be
// modified while the Document is in use.
func Parse(data []byte) (*Document, error) {
	doc := &Document{
		Version: parseVersion(data),
		data:    data,
		cache:   make(map[int]Object),
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("reader: missing %%PDF- header")
	}

	start, err := findStartXRef(data)
	if err != nil {
		return nil, err
	}
	doc.xref, doc.trailer, err = parseXRef(data, start)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.trailer["Encrypt"]; ok {
		return nil, ErrEncrypted
	}

	if err := doc.buildPageList(); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseVersion extracts the version from a "%PDF-x.y" header.
func parseVersion(data []byte) string {
	header := string(data[:min(1024, len(data))])
	idx := strings.Index(header, "%PDF-")
	if idx < 0 {
		return ""
	}
	v := header[idx+len("%PDF-"):]
	if end := strings.IndexAny(v, "\r\n %"); end >= 0 {
		v = v[:end]
	}
	return v
}

// NumPages returns the total number of pages in the document.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the page at the given 1-based index.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Pages returns an iterator over all pages. Index is 1-based.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, page := range d.pages {
			if !yield(i+1, page) {
				return
			}
		}
	}
}

// Trailer returns the trailer dictionary.
func (d *Document) Trailer() Dict {
	return d.trailer
}

// Catalog returns the document catalog (the trailer's /Root).
func (d *Document) Catalog() (Dict, error) {
	root, err := d.Resolve(d.trailer["Root"])
	if err != nil {
		return nil, err
	}
	catalog, ok := root.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: /Root is %T, not a dictionary", root)
	}
	return catalog, nil
}

// Metadata returns the text entries of the /Info dictionary, including the
// raw CreationDate and ModDate strings.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)
	info, err := d.Resolve(d.trailer["Info"])
	if err != nil {
		return meta
	}
	dict, _ := info.(Dict)
	for key, v := range dict {
		if s, ok := v.(String); ok {
			meta[string(key)] = s.Text()
		}
	}
	return meta
}

// Resolve follows o if it is a reference; other objects are returned as is.
// A reference to a missing object resolves to Null, as PDF requires.
func (d *Document) Resolve(o Object) (Object, error) {
	ref, ok := o.(Reference)
	if !ok {
		if o == nil {
			return Null{}, nil
		}
		return o, nil
	}
	if obj, ok := d.cache[ref.Number]; ok {
		return obj, nil
	}

	entry, ok := d.xref[ref.Number]
	if !ok {
		return Null{}, nil
	}
	if entry.Offset < 0 || entry.Offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("reader: object %d offset %d out of bounds", ref.Number, entry.Offset)
	}

	got, obj, err := newLexer(d.data[entry.Offset:]).indirect()
	if err != nil {
		return nil, err
	}
	if got.Number != ref.Number {
		return nil, fmt.Errorf("reader: xref points object %d at object %d", ref.Number, got.Number)
	}
	d.cache[ref.Number] = obj
	return obj, nil
}

// Object returns the object with the given number.
func (d *Document) Object(num int) (Object, error) {
	return d.Resolve(Reference{Number: num})
}

// ObjectNumbers returns the numbers of all in-use objects in the xref table.
func (d *Document) ObjectNumbers() []int {
	nums := make([]int, 0, len(d.xref))
	for n := range d.xref {
		nums = append(nums, n)
	}
	return nums
}
