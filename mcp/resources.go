package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/template"
)

// RegisterDefaultResources adds the field-kind catalogue, the report of the
// last generation and the page layout of a PDF file.
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URI:         "pdftpl://kinds",
		Name:        "Field kinds",
		Description: "Every field type a template may use and whether it is drawn or only reported.",
		MIMEType:    "application/json",
		Handler:     handleKindsResource,
	})

	s.AddResource(Resource{
		URI:         "pdftpl://last-generation",
		Name:        "Last generation",
		Description: "Page count and per-field diagnostics of the most recent generate_pdf call.",
		MIMEType:    "application/json",
		Handler: func(uri string) ([]ResourceContent, error) {
			if s.last == nil {
				return nil, errors.New("no PDF has been generated yet")
			}
			return jsonContent(uri, s.last)
		},
	})

	s.AddResource(Resource{
		URI:         "pdf://pages",
		Name:        "Page layout",
		Description: "Size, underlay XObjects and positioned text of every page of a PDF file, in points from the bottom-left corner: pdf://pages?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handlePagesResource,
	})
}

func jsonContent(uri string, v interface{}) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{URI: uri, MIMEType: "application/json", Text: string(data)}}, nil
}

type kindInfo struct {
	Type    string `json:"type"`
	Barcode bool   `json:"barcode"`
	Drawn   bool   `json:"drawn"`
}

func handleKindsResource(uri string) ([]ResourceContent, error) {
	var kinds []kindInfo
	for _, k := range template.Kinds() {
		if k == template.KindUnknown {
			continue
		}
		kinds = append(kinds, kindInfo{
			Type:    k.String(),
			Barcode: k.IsBarcode(),
			Drawn:   k == template.KindText,
		})
	}
	return jsonContent(uri, kinds)
}

// pathParam returns the path query parameter of a URI such as
// pdf://pages?path=/tmp/out.pdf.
func pathParam(uri string) (string, error) {
	_, query, _ := strings.Cut(uri, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("malformed query in %q: %w", uri, err)
	}
	path := values.Get("path")
	if path == "" {
		return "", fmt.Errorf("missing 'path' parameter in %q", uri)
	}
	return path, nil
}

type pageLayout struct {
	Page     int           `json:"page"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Underlay []reader.Name `json:"underlay,omitempty"`
	Text     []placedText  `json:"text"`
}

type placedText struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Font string  `json:"font"`
	Size float64 `json:"size"`
}

func handlePagesResource(uri string) ([]ResourceContent, error) {
	path, err := pathParam(uri)
	if err != nil {
		return nil, err
	}
	doc, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	layout := make([]pageLayout, 0, doc.NumPages())
	for n, page := range doc.Pages() {
		shows, err := page.TextShows()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		pl := pageLayout{
			Page:     n,
			Width:    page.MediaBox.Width(),
			Height:   page.MediaBox.Height(),
			Underlay: page.XObjects(),
			Text:     make([]placedText, 0, len(shows)),
		}
		for _, t := range shows {
			pl.Text = append(pl.Text, placedText{Text: t.Text, X: t.X, Y: t.Y, Font: t.Font, Size: t.Size})
		}
		layout = append(layout, pl)
	}
	return jsonContent(uri, layout)
}
