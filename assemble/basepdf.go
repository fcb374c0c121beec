package assemble

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdi"

	"github.com/lvillar/pdftpl/template"
)

// basePage is one page of a base PDF imported as a form XObject.
type basePage struct {
	name Name // XObject resource name
	id   int  // object id of the form XObject
	w, h float64
}

// basePDF is the result of importing the pages a template draws over.
type basePDF struct {
	pages    []basePage
	objects  map[int][]byte
	numPages int
}

var (
	objHeader  = regexp.MustCompile(`^\s*\d+\s+\d+\s+obj\b`)
	objFooter  = regexp.MustCompile(`\bendobj\s*$`)
	xrefOffset = regexp.MustCompile(`^\s+(\d+)`)
)

// xrefWindow is how far from the end of the file gofpdi scans for startxref.
const xrefWindow = 1500

// checkXRef verifies that data ends with a startxref whose offset lands on a
// cross-reference table or stream. gofpdi does not terminate on files without
// one, so this runs before any import.
func checkXRef(data []byte) error {
	fail := func(format string, args ...any) error {
		return &template.ValidationError{Path: "basePdf", Reason: fmt.Sprintf(format, args...)}
	}

	tail := data[max(0, len(data)-xrefWindow):]
	i := bytes.Index(tail, []byte("startxref"))
	if i < 0 {
		return fail("no startxref in the last %d bytes", xrefWindow)
	}
	m := xrefOffset.FindSubmatch(tail[i+len("startxref"):])
	if m == nil {
		return fail("startxref has no offset")
	}
	off, err := strconv.Atoi(string(m[1]))
	if err != nil || off <= 0 || off >= len(data) {
		return fail("startxref offset %s is outside the file", m[1])
	}

	section := data[off:]
	switch {
	case bytes.HasPrefix(bytes.TrimLeft(section, " \t\r\n"), []byte("xref")):
		if !bytes.Contains(section, []byte("trailer")) {
			return fail("xref table at offset %d has no trailer", off)
		}
	case objHeader.Match(section):
		if !bytes.Contains(section, []byte("endobj")) {
			return fail("xref stream at offset %d is not terminated", off)
		}
	default:
		return fail("startxref offset %d does not point at a cross-reference section", off)
	}
	return nil
}

// importBasePDF imports the first n pages of data (fewer if the PDF is
// shorter) with ids starting at 1. gofpdi reports malformed input by
// panicking, so failures are recovered and returned as template errors.
func importBasePDF(data []byte, n int) (base *basePDF, err error) {
	if err := checkXRef(data); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			base = nil
			err = &template.ValidationError{
				Path:   "basePdf",
				Reason: "cannot import PDF",
				Err:    fmt.Errorf("%v", r),
			}
		}
	}()

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	imp.SetSourceStream(&rs)
	imp.SetNextObjectID(1)

	total := len(imp.GetPageSizes())
	if total < 1 {
		return nil, &template.ValidationError{Path: "basePdf", Reason: "PDF has no pages"}
	}

	base = &basePDF{numPages: total}
	tplIDs := make([]int, 0, n)
	for p := 1; p <= min(n, total); p++ {
		tplIDs = append(tplIDs, imp.ImportPage(p, "/MediaBox"))
	}
	sizes := imp.GetPageSizes()

	forms := imp.PutFormXobjects()
	for i, tpl := range tplIDs {
		mb := sizes[i+1]["/MediaBox"]
		if mb["w"] <= 0 || mb["h"] <= 0 {
			return nil, &template.ValidationError{Path: "basePdf", Reason: fmt.Sprintf("page %d has no usable MediaBox", i+1)}
		}
		name, _, _, _, _ := imp.UseTemplate(tpl, 0, 0, mb["w"], mb["h"])
		id, ok := forms[name]
		if !ok {
			return nil, &template.ValidationError{Path: "basePdf", Reason: fmt.Sprintf("page %d was not imported", i+1)}
		}
		base.pages = append(base.pages, basePage{
			name: Name(strings.TrimPrefix(name, "/")),
			id:   id,
			w:    mb["w"],
			h:    mb["h"],
		})
	}

	base.objects = make(map[int][]byte)
	for id, body := range imp.GetImportedObjects() {
		body = objHeader.ReplaceAllString(body, "")
		body = objFooter.ReplaceAllString(body, "")
		base.objects[id] = []byte(strings.TrimSpace(body))
	}
	return base, nil
}

// page returns imported page p (1-based), if the template draws over it.
func (b *basePDF) page(p int) (basePage, bool) {
	if p < 1 || p > len(b.pages) {
		return basePage{}, false
	}
	return b.pages[p-1], true
}
