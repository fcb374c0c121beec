// Package assemble builds the PDF object graph for a template and a sequence of
// input records, and serializes it.
//
// An Assembler is single-use: records are added in order, then Finalize
// produces the file. One page is emitted per (record, page group) pair.
package assemble

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lvillar/pdftpl/render"
	"github.com/lvillar/pdftpl/template"
)

// fontResource is the resource name of the built-in font on every page.
const fontResource = Name("F1")

// Info is the document information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string

	// CreationDate is also written as ModDate. The zero value means now.
	CreationDate time.Time
}

// Config controls assembly.
type Config struct {
	// Compress applies FlateDecode to content streams.
	Compress bool
	Info     Info
	// Language is a BCP 47 tag written as the catalog /Lang entry.
	Language string
	// Logger receives one Warn record per diagnostic. Nil means slog.Default().
	Logger *slog.Logger
	// OnDiagnostic, if set, is called for every diagnostic with the 1-based
	// output page number.
	OnDiagnostic func(page int, d render.Diagnostic)
}

type state int

const (
	stateEmpty state = iota
	stateBuilding
	stateFinalized
)

// PageDiagnostic is a render diagnostic tied to the output page it occurred on.
type PageDiagnostic struct {
	Page int
	render.Diagnostic
}

// pageGeometry is the size of the pages produced for one page group.
type pageGeometry struct {
	wPt, hPt float64
	mm       template.BasePdf // the same size in millimetres, for rendering
	base     *basePage
}

// Assembler accumulates pages for one document.
type Assembler struct {
	tpl    *template.Template
	cfg    Config
	logger *slog.Logger

	arena   *arena
	pagesID int
	fontID  int
	kids    Array
	groups  []pageGeometry
	fonts   map[string]Name

	diags []PageDiagnostic
	state state
}

// New validates tpl and prepares an empty document. With a PDF base, the
// pages the template draws over are imported here.
func New(tpl *template.Template, cfg Config) (*Assembler, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Info.CreationDate.IsZero() {
		cfg.Info.CreationDate = time.Now()
	}

	a := &Assembler{
		tpl:    tpl,
		cfg:    cfg,
		logger: cfg.Logger,
		arena:  newArena(),
		fonts:  map[string]Name{render.DefaultFont: fontResource},
	}

	var base *basePDF
	if tpl.BasePdf.HasPDF() {
		var err error
		base, err = importBasePDF(tpl.BasePdf.PDF, tpl.PageCount())
		if err != nil {
			return nil, err
		}
		a.arena.pin(base.objects)
	}
	a.groups = pageGeometries(tpl, base)

	a.pagesID = a.arena.alloc()
	a.fontID = a.arena.add(Dict{
		"Type":     Name("Font"),
		"Subtype":  Name("Type1"),
		"BaseFont": Name(render.DefaultFont),
		"Encoding": Name("WinAnsiEncoding"),
	})
	return a, nil
}

// pageGeometries sizes the page of every page group. Explicit template
// dimensions win; otherwise a group takes the size of the base page under it,
// or of the first base page when the base PDF is shorter than the template.
func pageGeometries(tpl *template.Template, base *basePDF) []pageGeometry {
	out := make([]pageGeometry, tpl.PageCount())
	for j := range out {
		g := pageGeometry{
			wPt: render.MMToPt(tpl.BasePdf.Width),
			hPt: render.MMToPt(tpl.BasePdf.Height),
		}
		if base != nil {
			bp, ok := base.page(j + 1)
			if ok {
				g.base = &bp
			}
			if tpl.BasePdf.Width <= 0 || tpl.BasePdf.Height <= 0 {
				if !ok {
					bp, _ = base.page(1)
				}
				g.wPt, g.hPt = bp.w, bp.h
			}
		}
		if tpl.BasePdf.Width > 0 && tpl.BasePdf.Height > 0 {
			g.mm = template.BasePdf{Width: tpl.BasePdf.Width, Height: tpl.BasePdf.Height}
		} else {
			g.mm = template.BasePdf{Width: render.PtToMM(g.wPt), Height: render.PtToMM(g.hPt)}
		}
		out[j] = g
	}
	return out
}

// AddRecord appends one page per page group, filled from rec.
func (a *Assembler) AddRecord(rec template.Record) error {
	if a.state == stateFinalized {
		return ErrFinalized
	}
	a.state = stateBuilding

	for j, fields := range a.tpl.Schemas {
		if err := a.addPage(a.groups[j], fields, rec); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) addPage(g pageGeometry, fields []template.Field, rec template.Record) error {
	pageNo := len(a.kids) + 1
	content := newContentBuilder(a.fonts)
	resources := Dict{
		"Font":    Dict{fontResource: Ref(a.fontID)},
		"ProcSet": Array{Name("PDF"), Name("Text")},
	}

	if g.base != nil {
		if err := content.drawForm(g.base.name, g.wPt/g.base.w, g.hPt/g.base.h); err != nil {
			return newEncodingError(fmt.Sprintf("page %d base", pageNo), err)
		}
		resources["XObject"] = Dict{g.base.name: Ref(g.base.id)}
	}

	for _, f := range fields {
		ops, diags := render.Render(f, rec, g.mm)
		for _, d := range diags {
			a.report(pageNo, d)
		}
		for _, op := range ops {
			if err := content.op(op); err != nil {
				return newEncodingError(fmt.Sprintf("page %d field %q", pageNo, f.Name), err)
			}
		}
	}

	box, err := mediaBox(g.wPt, g.hPt)
	if err != nil {
		return newEncodingError(fmt.Sprintf("page %d MediaBox", pageNo), err)
	}
	contentsID := a.arena.add(&Stream{Dict: Dict{}, Data: content.bytes()})
	pageID := a.arena.add(Dict{
		"Type":      Name("Page"),
		"Parent":    Ref(a.pagesID),
		"MediaBox":  box,
		"Resources": resources,
		"Contents":  Ref(contentsID),
	})
	a.kids = append(a.kids, Ref(pageID))
	return nil
}

func mediaBox(w, h float64) (Array, error) {
	if _, err := formatReals(w, h); err != nil {
		return nil, err
	}
	return Array{Int(0), Int(0), Real(w), Real(h)}, nil
}

func (a *Assembler) report(page int, d render.Diagnostic) {
	a.diags = append(a.diags, PageDiagnostic{Page: page, Diagnostic: d})
	a.logger.Warn("field not fully rendered",
		"field", d.Field,
		"type", d.Type,
		"page", page,
		"reason", d.Err,
		"detail", d.Detail,
	)
	if a.cfg.OnDiagnostic != nil {
		a.cfg.OnDiagnostic(page, d)
	}
}

// Finalize builds the pages tree, catalog and info dictionary, compacts and
// serializes the document. The assembler cannot be used afterwards.
func (a *Assembler) Finalize() ([]byte, error) {
	if a.state == stateFinalized {
		return nil, ErrFinalized
	}
	a.state = stateFinalized

	a.arena.set(a.pagesID, Dict{
		"Type":  Name("Pages"),
		"Kids":  a.kids,
		"Count": Int(len(a.kids)),
	})

	catalog := Dict{
		"Type":  Name("Catalog"),
		"Pages": Ref(a.pagesID),
	}
	if a.cfg.Language != "" {
		catalog["Lang"] = TextString(a.cfg.Language)
	}
	catalogID := a.arena.add(catalog)
	infoID := a.arena.add(a.infoDict())

	ids, err := a.arena.compact(catalogID, infoID)
	if err != nil {
		return nil, newEncodingError("object graph", err)
	}
	if a.cfg.Compress {
		if err := a.arena.compressStreams(); err != nil {
			return nil, err
		}
	}

	out, err := a.arena.serialize(ids[0], ids[1])
	if err != nil {
		return nil, err
	}
	a.logger.Debug("document assembled",
		"pages", len(a.kids),
		"objects", a.arena.size()-1,
		"bytes", len(out),
		"diagnostics", len(a.diags),
	)
	return out, nil
}

func (a *Assembler) infoDict() Dict {
	info := a.cfg.Info
	d := Dict{
		"CreationDate": DateString(info.CreationDate),
		"ModDate":      DateString(info.CreationDate),
	}
	for key, v := range map[Name]string{
		"Title":    info.Title,
		"Author":   info.Author,
		"Subject":  info.Subject,
		"Keywords": info.Keywords,
		"Creator":  info.Creator,
		"Producer": info.Producer,
	} {
		if v != "" {
			d[key] = TextString(v)
		}
	}
	return d
}

// Diagnostics returns the diagnostics collected so far, in the order they
// occurred.
func (a *Assembler) Diagnostics() []PageDiagnostic {
	return append([]PageDiagnostic(nil), a.diags...)
}

// PageCount returns the number of pages added so far.
func (a *Assembler) PageCount() int {
	return len(a.kids)
}

// Assemble renders every record of records over tpl and returns the PDF.
func Assemble(tpl *template.Template, records []template.Record, cfg Config) ([]byte, error) {
	a, err := New(tpl, cfg)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := a.AddRecord(rec); err != nil {
			return nil, err
		}
	}
	return a.Finalize()
}
