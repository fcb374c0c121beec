package reader_test

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lvillar/pdftpl/reader"
)

// buildPDF writes objects as 1..n with a classic xref table and a trailer
// whose /Root is object 1. It returns the file and the xref offset.
func buildPDF(objects []string, trailerExtra string) ([]byte, int) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R %s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, trailerExtra, xref)
	return buf.Bytes(), xref
}

func stream(dict string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func flate(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(data)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// sampleDocument has three pages: two under a nested pages node that
// inherits the MediaBox, one with its own MediaBox and two content streams.
func sampleDocument(t *testing.T) ([]byte, int) {
	t.Helper()
	return buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R /Lang (en-US) >>",
		"<< /Type /Pages /Kids [3 0 R 6 0 R] /Count 3 /MediaBox [0 0 595.28 841.89] >>",
		"<< /Type /Pages /Parent 2 0 R /Kids [4 0 R 5 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 3 0 R /Contents 7 0 R /Resources << /Font << /F1 10 0 R >> >> >>",
		"<< /Type /Page /Parent 3 0 R /Contents 8 0 R >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Contents [9 0 R 7 0 R] >>",
		stream("/Filter /FlateDecode", flate(t, "BT /F1 12 Tf 10 20 Td (Hello) Tj ET")),
		stream("/Filter /ASCIIHexDecode", []byte(hex.EncodeToString([]byte("BT /F1 9 Tf 1 2 Td (Hex) Tj ET"))+">")),
		stream("", []byte("q 1 0 0 1 0 0 cm Q")),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Title <FEFF0054006900740072006500E9> /Author (Jane Roe) /CreationDate (D:20240102030405Z) >>",
	}, "/Info 11 0 R")
}

func TestParseDocument(t *testing.T) {
	data, _ := sampleDocument(t)

	doc, err := reader.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != "1.7" {
		t.Errorf("Version = %q", doc.Version)
	}
	if doc.NumPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.NumPages())
	}

	for i, want := range []reader.Rectangle{
		{URX: 595.28, URY: 841.89},
		{URX: 595.28, URY: 841.89},
		{URX: 200, URY: 100},
	} {
		page, err := doc.Page(i + 1)
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
		if page.MediaBox != want {
			t.Errorf("page %d MediaBox = %+v, want %+v", i+1, page.MediaBox, want)
		}
	}

	catalog, err := doc.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if lang, ok := catalog["Lang"].(reader.String); !ok || lang.Text() != "en-US" {
		t.Errorf("Lang = %v", catalog["Lang"])
	}

	meta := doc.Metadata()
	if meta["Title"] != "Titreé" || meta["Author"] != "Jane Roe" {
		t.Errorf("unexpected metadata: %v", meta)
	}
	if meta["CreationDate"] != "D:20240102030405Z" {
		t.Errorf("CreationDate = %q", meta["CreationDate"])
	}
}

func TestPageTextThroughFilters(t *testing.T) {
	data, _ := sampleDocument(t)
	doc, err := reader.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		page  int
		texts []string
	}{
		{1, []string{"Hello"}},
		{2, []string{"Hex"}},
		{3, []string{"Hello"}},
	}
	for _, tt := range tests {
		page, _ := doc.Page(tt.page)
		shows, err := page.TextShows()
		if err != nil {
			t.Fatalf("page %d: %v", tt.page, err)
		}
		if len(shows) != len(tt.texts) {
			t.Fatalf("page %d: got %d shows, want %d", tt.page, len(shows), len(tt.texts))
		}
		for i, s := range shows {
			if s.Text != tt.texts[i] {
				t.Errorf("page %d show %d = %q, want %q", tt.page, i, s.Text, tt.texts[i])
			}
		}
	}

	page, _ := doc.Page(1)
	shows, _ := page.TextShows()
	if s := shows[0]; s.Font != "F1" || s.Size != 12 || s.X != 10 || s.Y != 20 {
		t.Errorf("unexpected text state: %+v", s)
	}
	if text, err := page.ExtractText(); err != nil || text != "Hello" {
		t.Errorf("ExtractText = %q, %v", text, err)
	}

	// Page 3 concatenates two streams.
	page, _ = doc.Page(3)
	ops, err := page.Operations()
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	if len(ops) != 8 || ops[0].Operator != "q" || ops[len(ops)-1].Operator != "ET" {
		t.Errorf("unexpected operations: %v", ops)
	}
}

func TestIncrementalUpdate(t *testing.T) {
	data, xref := sampleDocument(t)

	var buf bytes.Buffer
	buf.Write(data)
	off := buf.Len()
	buf.WriteString("11 0 obj\n<< /Title (Revised) >>\nendobj\n")
	newXref := buf.Len()
	fmt.Fprintf(&buf, "xref\n11 1\n%010d 00000 n \ntrailer\n<< /Size 12 /Root 1 0 R /Info 11 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", off, xref, newXref)

	doc, err := reader.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Metadata()["Title"]; got != "Revised" {
		t.Errorf("Title = %q, want the revised value", got)
	}
	if doc.NumPages() != 3 {
		t.Errorf("expected 3 pages, got %d", doc.NumPages())
	}
}

func TestPageAccess(t *testing.T) {
	data, _ := sampleDocument(t)
	doc, err := reader.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}

	if _, err := doc.Page(0); err == nil {
		t.Error("expected error for page 0")
	}
	if _, err := doc.Page(4); err == nil {
		t.Error("expected error for page 4")
	}

	count := 0
	for num, page := range doc.Pages() {
		count++
		if page.Number != num {
			t.Errorf("iterator: page.Number=%d, num=%d", page.Number, num)
		}
	}
	if count != 3 {
		t.Errorf("iterator: expected 3 iterations, got %d", count)
	}

	page, _ := doc.Page(1)
	if xo := page.XObjects(); len(xo) != 0 {
		t.Errorf("unexpected XObjects: %v", xo)
	}
}

func TestOpen(t *testing.T) {
	data, _ := sampleDocument(t)
	path := filepath.Join(t.TempDir(), "sample.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := reader.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.NumPages() != 3 {
		t.Errorf("expected 3 pages, got %d", doc.NumPages())
	}

	if _, err := reader.Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestRejectedInputs(t *testing.T) {
	if _, err := reader.Parse([]byte("hello")); err == nil {
		t.Error("expected error for non-PDF input")
	}
	if _, err := reader.Parse([]byte("%PDF-1.7\nno xref here\n")); err == nil {
		t.Error("expected error without startxref")
	}

	encrypted, _ := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}, "/Encrypt << /Filter /Standard >>")
	if _, err := reader.Parse(encrypted); !errors.Is(err, reader.ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
}
