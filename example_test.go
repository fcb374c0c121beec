package pdftpl_test

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/reader"
)

func ExampleGenerateJSON() {
	tpl := `{
		"basePdf": {"width": 210, "height": 297},
		"schemas": [[
			{"name": "name", "type": "text", "position": {"x": 20, "y": 20}, "width": 100, "height": 10},
			{"name": "title", "type": "text", "position": {"x": 20, "y": 35}, "width": 100, "height": 10, "content": "Attendee"}
		]]
	}`
	records := `[{"name": "John Doe"}, {"name": "Jane Roe", "title": "Speaker"}]`

	out, err := pdftpl.GenerateJSON([]byte(tpl), []byte(records),
		pdftpl.WithTitle("Badges"),
		pdftpl.WithCreationDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		pdftpl.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	doc, err := reader.Parse(out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for n, page := range doc.Pages() {
		shows, _ := page.TextShows()
		for _, s := range shows {
			fmt.Printf("page %d: %q at (%.2f, %.2f)\n", n, s.Text, s.X, s.Y)
		}
	}
	// Output:
	// page 1: "John Doe" at (56.69, 756.85)
	// page 1: "Attendee" at (56.69, 714.33)
	// page 2: "Jane Roe" at (56.69, 756.85)
	// page 2: "Speaker" at (56.69, 714.33)
}
