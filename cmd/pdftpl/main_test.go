package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const badgeTemplate = `{
	"basePdf": {"width": 210, "height": 297},
	"schemas": [[
		{"name": "name", "type": "text", "position": {"x": 20, "y": 20}, "width": 100, "height": 10},
		{"name": "photo", "type": "image", "position": {"x": 150, "y": 20}, "width": 30, "height": 30}
	]]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Errorf("no args: exit %d, want 2", code)
	}
	if code := run([]string{"frobnicate"}, &stdout, &stderr); code != 2 {
		t.Errorf("unknown command: exit %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "frobnicate"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
	if code := run([]string{"generate", "-template", "x.json"}, &stdout, &stderr); code != 2 {
		t.Errorf("missing -inputs: exit %d, want 2", code)
	}
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "badge.json", badgeTemplate)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"validate", "-template", tpl}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "ok: 1 page(s), 2 field(s)\n") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "page 1\tphoto\timage (not drawn)") {
		t.Errorf("image field not flagged: %q", out)
	}

	bad := writeFile(t, dir, "bad.json", `{"basePdf": {"width": 10, "height": 10}}`)
	stderr.Reset()
	if code := run([]string{"validate", "-template", bad}, &stdout, &stderr); code != 1 {
		t.Fatalf("invalid template: exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "schemas: missing") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunGenerateAndInspect(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "badge.json", badgeTemplate)
	inputs := writeFile(t, dir, "people.json", `[{"name": "Ada"}, {"name": "Grace"}]`)
	out := filepath.Join(dir, "badges.pdf")

	var stdout, stderr bytes.Buffer
	code := run([]string{"generate", "-template", tpl, "-inputs", inputs, "-o", out, "-title", "Badges", "-lang", "en"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("generate: exit %d: %s", code, stderr.String())
	}
	// The image field is reported once per record.
	if n := strings.Count(stderr.String(), "level=WARN"); n != 2 {
		t.Errorf("expected 2 warnings, got %d:\n%s", n, stderr.String())
	}

	stdout.Reset()
	if code := run([]string{"inspect", out}, &stdout, &stderr); code != 0 {
		t.Fatalf("inspect: exit %d: %s", code, stderr.String())
	}
	var doc inspectedDocument
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("inspect output is not JSON: %v\n%s", err, stdout.String())
	}
	if doc.Version != "1.7" || doc.Metadata["Title"] != "Badges" {
		t.Errorf("version %q, metadata %v", doc.Version, doc.Metadata)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}
	for i, want := range []string{"Ada", "Grace"} {
		page := doc.Pages[i]
		if page.Number != i+1 || len(page.Text) != 1 || page.Text[0].Text != want {
			t.Errorf("page %d = %+v, want text %q", i+1, page, want)
		}
	}
}

func TestRunGenerateReproducible(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "badge.json", badgeTemplate)
	inputs := writeFile(t, dir, "people.json", `[{"name": "Ada"}]`)
	args := []string{"generate", "-template", tpl, "-inputs", inputs, "-date", "2024-01-02T03:04:05Z"}

	var first, second, stderr bytes.Buffer
	if code := run(args, &first, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if code := run(args, &second, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if !bytes.HasPrefix(first.Bytes(), []byte("%PDF-")) {
		t.Fatal("stdout does not hold a PDF")
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("identical runs with a fixed date produced different output")
	}
}

func TestRunGenerateFailure(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "badge.json", badgeTemplate)
	inputs := writeFile(t, dir, "people.json", `{"name": "not an array"}`)

	var stdout, stderr bytes.Buffer
	code := run([]string{"generate", "-template", tpl, "-inputs", inputs}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Error("nothing should be written on failure")
	}
	if !strings.Contains(stderr.String(), "pdftpl generate: pdftpl.GenerateJSON:") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
