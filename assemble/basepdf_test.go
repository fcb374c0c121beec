package assemble

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lvillar/pdftpl/render"
	"github.com/lvillar/pdftpl/template"
)

// withStartXRef appends a startxref pointing at offset.
func withStartXRef(body string, offset int) []byte {
	return []byte(fmt.Sprintf("%sstartxref\n%d\n%%%%EOF\n", body, offset))
}

func TestCheckXRef(t *testing.T) {
	const head = "%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"
	table := head + "xref\n0 2\n0000000000 65535 f \n0000000009 00000 n \ntrailer\n<< /Size 2 /Root 1 0 R >>\n"
	stream := head + "2 0 obj\n<< /Type /XRef /Size 3 >>\nstream\n\nendstream\nendobj\n"
	padding := strings.Repeat("%pad\n", 400)

	tests := []struct {
		name string
		data []byte
		want string // empty when the file must pass
	}{
		{"xref table", withStartXRef(table, len(head)), ""},
		{"xref stream", withStartXRef(stream, len(head)), ""},
		{"no startxref", []byte(table), "no startxref"},
		{"startxref too early", append(withStartXRef(table, len(head)), padding...), "no startxref"},
		{"no offset", []byte(table + "startxref\n%%EOF\n"), "no offset"},
		{"zero offset", withStartXRef(table, 0), "outside the file"},
		{"offset past end", withStartXRef(table, 1<<20), "outside the file"},
		{"offset on a dictionary", withStartXRef(table, len("%PDF-1.7\n1 0 obj\n")), "does not point"},
		{"table without trailer", withStartXRef(head+"xref\n0 1\n0000000000 65535 f \n", len(head)), "no trailer"},
		{"unterminated stream", withStartXRef(head+"2 0 obj\n<< /Type /XRef >>\nstream\n", len(head)), "not terminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkXRef(tt.data)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, template.ErrInvalidTemplate) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("checkXRef() = %v, want an invalid template error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestImportBasePDFRejectsBeforeImport(t *testing.T) {
	data := []byte("%PDF-1.7\n" + strings.Repeat("garbage ", 1000))
	base, err := importBasePDF(data, 1)
	if base != nil || !errors.Is(err, template.ErrInvalidTemplate) {
		t.Fatalf("importBasePDF() = %v, %v", base, err)
	}
}

func TestPageGeometriesKeepTemplateMillimetres(t *testing.T) {
	tpl := &template.Template{
		BasePdf: template.BasePdf{Width: 100.3, Height: 141.7},
		Schemas: [][]template.Field{{}, {}},
	}
	for j, g := range pageGeometries(tpl, nil) {
		if g.mm.Width != 100.3 || g.mm.Height != 141.7 {
			t.Errorf("group %d renders against %vx%v mm, want the template's 100.3x141.7", j, g.mm.Width, g.mm.Height)
		}
		if g.wPt != render.MMToPt(100.3) || g.hPt != render.MMToPt(141.7) {
			t.Errorf("group %d page is %vx%v pt", j, g.wPt, g.hPt)
		}
		if g.base != nil {
			t.Errorf("group %d has an underlay without a base PDF", j)
		}
	}
}
