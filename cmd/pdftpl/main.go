// Command pdftpl fills PDF templates from the command line.
//
// Usage:
//
//	pdftpl generate -template badge.json -inputs people.json -o badges.pdf
//	pdftpl validate -template badge.json
//	pdftpl inspect badges.pdf
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/reader"
	"github.com/lvillar/pdftpl/template"
)

const usage = `usage: pdftpl <command> [flags]

commands:
  generate  fill a template with input records and write a PDF
  validate  check a template and list its fields
  inspect   print the pages and positioned text of a PDF as JSON
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(args[1:], stdout, stderr)
	case "validate":
		err = runValidate(args[1:], stdout, stderr)
	case "inspect":
		err = runInspect(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "pdftpl: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "pdftpl %s: %v\n", args[0], err)
		return 1
	}
}

// errUsage marks errors already reported by a flag set.
var errUsage = errors.New("usage")

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func runGenerate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		tplPath    = fs.String("template", "", "template JSON `file` (required)")
		inputsPath = fs.String("inputs", "", "records JSON `file`; \"-\" reads stdin (required)")
		outPath    = fs.String("o", "", "output `file`; stdout when empty")
		title      = fs.String("title", "", "document title")
		author     = fs.String("author", "", "document author")
		subject    = fs.String("subject", "", "document subject")
		keywords   = fs.String("keywords", "", "document keywords")
		lang       = fs.String("lang", "", "document language as a BCP 47 tag")
		date       = fs.String("date", "", "creation date in RFC 3339, for reproducible output")
		noCompress = fs.Bool("no-compress", false, "write content streams uncompressed")
		verbose    = fs.Bool("v", false, "log debug output")
	)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *tplPath == "" || *inputsPath == "" {
		fmt.Fprintln(stderr, "generate: -template and -inputs are required")
		fs.Usage()
		return errUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	tplJSON, err := os.ReadFile(*tplPath)
	if err != nil {
		return err
	}
	var inputsJSON []byte
	if *inputsPath == "-" {
		inputsJSON, err = io.ReadAll(os.Stdin)
	} else {
		inputsJSON, err = os.ReadFile(*inputsPath)
	}
	if err != nil {
		return err
	}

	opts := []pdftpl.Option{
		pdftpl.WithLogger(log),
		pdftpl.WithCompression(!*noCompress),
		pdftpl.WithTitle(*title),
		pdftpl.WithAuthor(*author),
		pdftpl.WithSubject(*subject),
		pdftpl.WithKeywords(*keywords),
		pdftpl.WithCreator("pdftpl"),
		pdftpl.WithLanguage(*lang),
	}
	if *date != "" {
		t, err := time.Parse(time.RFC3339, *date)
		if err != nil {
			return fmt.Errorf("-date: %w", err)
		}
		opts = append(opts, pdftpl.WithCreationDate(t))
	}

	out, err := pdftpl.GenerateJSON(tplJSON, inputsJSON, opts...)
	if err != nil {
		return err
	}

	if *outPath == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(*outPath, out, 0644); err != nil {
		return err
	}
	log.Info("wrote PDF", "path", *outPath, "bytes", len(out))
	return nil
}

func runValidate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tplPath := fs.String("template", "", "template JSON `file` (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *tplPath == "" {
		fmt.Fprintln(stderr, "validate: -template is required")
		fs.Usage()
		return errUsage
	}

	data, err := os.ReadFile(*tplPath)
	if err != nil {
		return err
	}
	tpl, err := template.Parse(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "ok: %d page(s), %d field(s)\n", tpl.PageCount(), tpl.Fields())
	for i, page := range tpl.Schemas {
		for _, f := range page {
			note := ""
			if f.Kind() != template.KindText {
				note = " (not drawn)"
			}
			fmt.Fprintf(stdout, "page %d\t%s\t%s%s\n", i+1, f.Name, f.Type, note)
		}
	}
	return nil
}

type inspectedPage struct {
	Number int               `json:"number"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	Text   []reader.TextShow `json:"text"`
}

type inspectedDocument struct {
	Version  string            `json:"version"`
	Metadata map[string]string `json:"metadata"`
	Pages    []inspectedPage   `json:"pages"`
}

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: pdftpl inspect <file.pdf>")
		return errUsage
	}

	doc, err := reader.Open(fs.Arg(0))
	if err != nil {
		return err
	}

	out := inspectedDocument{
		Version:  doc.Version,
		Metadata: doc.Metadata(),
		Pages:    make([]inspectedPage, 0, doc.NumPages()),
	}
	for n, page := range doc.Pages() {
		shows, err := page.TextShows()
		if err != nil {
			return fmt.Errorf("page %d: %w", n, err)
		}
		out.Pages = append(out.Pages, inspectedPage{
			Number: n,
			Width:  page.MediaBox.Width(),
			Height: page.MediaBox.Height(),
			Text:   shows,
		})
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(out)
}
