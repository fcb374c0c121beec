package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/render"
	"github.com/lvillar/pdftpl/template"
)

// RegisterDefaultTools adds the generation and inspection tools to the server.
func RegisterDefaultTools(s *Server) {
	s.AddTool(generatePDFTool(s))
	s.AddTool(validateTemplateTool())
	s.AddTool(inspectPDFTool())
}

var templateSchema = map[string]interface{}{
	"type":        "object",
	"description": `Template with "basePdf" ({"width", "height"} in mm, or a base64 PDF data URI) and "schemas" (one array of fields per page; each field has name, type, position {x, y}, width, height and optional content)`,
}

func generatePDFTool(s *Server) Tool {
	return Tool{
		Name:        "generate_pdf",
		Description: "Generate a PDF by filling a template with input records. One page is produced per record and template page. Returns the PDF as base64, or writes it to outputPath.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"template": templateSchema,
				"inputs": map[string]interface{}{
					"type":        "array",
					"description": "Records mapping field names to values",
					"items":       map[string]interface{}{"type": "object"},
				},
				"options": map[string]interface{}{
					"type":        "object",
					"description": "Optional document settings: title, author, subject, keywords, creator, language (BCP 47), compress (boolean)",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to save the PDF. If omitted, returns base64.",
				},
			},
			"required": []string{"template", "inputs"},
		},
		Handler: func(args map[string]interface{}) (ToolResult, error) {
			return handleGeneratePDF(s, args)
		},
	}
}

// jsonArg re-encodes a decoded argument so it can go through the JSON
// parsers of the template package.
func jsonArg(args map[string]interface{}, name string) ([]byte, error) {
	v, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("missing '%s' argument", name)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	return data, nil
}

// generateOptions maps the tool's "options" object to generation options.
func generateOptions(raw interface{}) ([]pdftpl.Option, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("'options' must be an object")
	}

	setters := map[string]func(string) pdftpl.Option{
		"title":    pdftpl.WithTitle,
		"author":   pdftpl.WithAuthor,
		"subject":  pdftpl.WithSubject,
		"keywords": pdftpl.WithKeywords,
		"creator":  pdftpl.WithCreator,
		"language": pdftpl.WithLanguage,
	}
	var opts []pdftpl.Option
	for key, v := range m {
		if key == "compress" {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("option 'compress' must be a boolean")
			}
			opts = append(opts, pdftpl.WithCompression(b))
			continue
		}
		set, ok := setters[key]
		if !ok {
			return nil, fmt.Errorf("unknown option %q", key)
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("option %q must be a string", key)
		}
		opts = append(opts, set(str))
	}
	return opts, nil
}

// generationReport is the outcome of a generate_pdf call.
type generationReport struct {
	Records     int               `json:"records"`
	Pages       int               `json:"pages"`
	Bytes       int               `json:"bytes"`
	OutputPath  string            `json:"outputPath,omitempty"`
	Diagnostics []diagnosticEntry `json:"diagnostics"`
}

// diagnosticEntry is a render.Diagnostic with its output page.
type diagnosticEntry struct {
	Page   int    `json:"page"`
	Field  string `json:"field"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func handleGeneratePDF(s *Server, args map[string]interface{}) (ToolResult, error) {
	tplJSON, err := jsonArg(args, "template")
	if err != nil {
		return ToolResult{}, err
	}
	inputsJSON, err := jsonArg(args, "inputs")
	if err != nil {
		return ToolResult{}, err
	}
	opts, err := generateOptions(args["options"])
	if err != nil {
		return ToolResult{}, err
	}
	tpl, err := template.Parse(tplJSON)
	if err != nil {
		return ToolResult{}, err
	}
	records, err := template.ParseRecords(inputsJSON)
	if err != nil {
		return ToolResult{}, err
	}

	report := &generationReport{
		Records:     len(records),
		Pages:       len(records) * tpl.PageCount(),
		Diagnostics: []diagnosticEntry{},
	}
	opts = append(opts,
		pdftpl.WithLogger(s.logger),
		pdftpl.WithDiagnosticHandler(func(page int, d render.Diagnostic) {
			entry := diagnosticEntry{Page: page, Field: d.Field, Type: d.Type, Detail: d.Detail}
			if d.Err != nil {
				entry.Reason = d.Err.Error()
			}
			report.Diagnostics = append(report.Diagnostics, entry)
		}),
	)

	out, err := pdftpl.Generate(tpl, records, opts...)
	if err != nil {
		return ToolResult{}, err
	}
	report.Bytes = len(out)

	var summary strings.Builder
	report.OutputPath, _ = args["outputPath"].(string)
	if report.OutputPath != "" {
		if err := os.WriteFile(report.OutputPath, out, 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		fmt.Fprintf(&summary, "Generated %d page(s) from %d record(s): %s (%d bytes)", report.Pages, report.Records, report.OutputPath, len(out))
	} else {
		fmt.Fprintf(&summary, "Generated %d page(s) from %d record(s) (%d bytes).", report.Pages, report.Records, len(out))
	}
	if n := len(report.Diagnostics); n > 0 {
		fmt.Fprintf(&summary, "\n%d diagnostic(s):", n)
		for _, d := range report.Diagnostics {
			fmt.Fprintf(&summary, "\n  page %d, field %q (%s): %s", d.Page, d.Field, d.Type, d.Reason)
		}
	}
	s.last = report

	result := ToolResult{Content: []ContentBlock{{Type: "text", Text: summary.String()}}}
	if report.OutputPath == "" {
		result.Content = append(result.Content, ContentBlock{
			Type:     "resource",
			MIMEType: "application/pdf",
			Data:     base64.StdEncoding.EncodeToString(out),
		})
	}
	return result, nil
}

func validateTemplateTool() Tool {
	return Tool{
		Name:        "validate_template",
		Description: "Check a template for structural errors and report the kind of every field, flagging kinds that are not drawn.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"template": templateSchema,
			},
			"required": []string{"template"},
		},
		Handler: handleValidateTemplate,
	}
}

func handleValidateTemplate(args map[string]interface{}) (ToolResult, error) {
	data, err := jsonArg(args, "template")
	if err != nil {
		return ToolResult{}, err
	}
	tpl, err := template.Parse(data)
	if err != nil {
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Invalid template: %v", err)}},
			IsError: true,
		}, nil
	}
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: describeTemplate(tpl)}},
	}, nil
}

func describeTemplate(tpl *template.Template) string {
	var sb strings.Builder
	if tpl.BasePdf.HasPDF() {
		fmt.Fprintf(&sb, "Template is valid: base PDF (%d bytes), %d page(s), %d field(s)\n", len(tpl.BasePdf.PDF), tpl.PageCount(), tpl.Fields())
	} else {
		fmt.Fprintf(&sb, "Template is valid: %gx%g mm, %d page(s), %d field(s)\n", tpl.BasePdf.Width, tpl.BasePdf.Height, tpl.PageCount(), tpl.Fields())
	}
	for i, page := range tpl.Schemas {
		fmt.Fprintf(&sb, "\nPage %d:\n", i+1)
		for _, f := range page {
			status := "drawn"
			if f.Kind() != template.KindText {
				status = "not drawn"
			}
			fmt.Fprintf(&sb, "  %s (%s) at %g,%g size %gx%g: %s\n", f.Name, f.Type, f.Position.X, f.Position.Y, f.Width, f.Height, status)
		}
	}
	return sb.String()
}

func inspectPDFTool() Tool {
	return Tool{
		Name:        "inspect_pdf",
		Description: "Read a PDF and report its version, metadata, and for every page the MediaBox and the positioned text.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
				"data": map[string]interface{}{
					"type":        "string",
					"description": "Base64 PDF data, used when path is omitted",
				},
			},
		},
		Handler: handleInspectPDF,
	}
}

func openArg(args map[string]interface{}) (*reader.Document, error) {
	if path, ok := args["path"].(string); ok && path != "" {
		return reader.Open(path)
	}
	if data, ok := args["data"].(string); ok && data != "" {
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
		return reader.Parse(raw)
	}
	return nil, fmt.Errorf("one of 'path' or 'data' is required")
}

func handleInspectPDF(args map[string]interface{}) (ToolResult, error) {
	doc, err := openArg(args)
	if err != nil {
		return ToolResult{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "PDF version: %s\nPages: %d\n", doc.Version, doc.NumPages())
	for _, key := range []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate"} {
		if v := doc.Metadata()[key]; v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", key, v)
		}
	}
	for n, page := range doc.Pages() {
		fmt.Fprintf(&sb, "\nPage %d: %.2f x %.2f pt\n", n, page.MediaBox.Width(), page.MediaBox.Height())
		shows, err := page.TextShows()
		if err != nil {
			fmt.Fprintf(&sb, "  (content error: %v)\n", err)
			continue
		}
		for _, t := range shows {
			fmt.Fprintf(&sb, "  %q at (%.2f, %.2f) %s %gpt\n", t.Text, t.X, t.Y, t.Font, t.Size)
		}
	}

	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: sb.String()}},
	}, nil
}
