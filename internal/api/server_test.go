package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/internal/config"
	"github.com/lvillar/pdftpl/reader"
)

const testSecret = "0123456789abcdef0123456789abcdef"

const badgeTemplate = `{
	"basePdf": {"width": 210, "height": 297},
	"schemas": [[
		{"name": "name", "type": "text", "position": {"x": 20, "y": 20}, "width": 100, "height": 10},
		{"name": "code", "type": "qrcode", "position": {"x": 150, "y": 20}, "width": 30, "height": 30}
	]]
}`

func newTestServer(cfg config.Config) *Server {
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(config.Config{}), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGenerate(t *testing.T) {
	s := newTestServer(config.Config{Compress: true})
	body := fmt.Sprintf(`{"template": %s, "inputs": [{"name": "Ada", "code": "x"}, {"name": "Grace"}], "options": {"title": "Badges"}}`, badgeTemplate)

	rec := do(t, s, http.MethodPost, "/api/generate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	// The qrcode field is reported once per record.
	if n := rec.Header().Get(DiagnosticsHeader); n != "2" {
		t.Errorf("%s = %q, want 2", DiagnosticsHeader, n)
	}

	doc, err := reader.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("pages = %d, want 2", doc.NumPages())
	}
	if doc.Metadata()["Title"] != "Badges" {
		t.Errorf("Title = %q", doc.Metadata()["Title"])
	}
	for i, want := range []string{"Ada", "Grace"} {
		page, err := doc.Page(i + 1)
		if err != nil {
			t.Fatal(err)
		}
		text, err := page.ExtractText()
		if err != nil {
			t.Fatal(err)
		}
		if text != want {
			t.Errorf("page %d text = %q, want %q", i+1, text, want)
		}
	}
}

func TestGenerateCompressionOverride(t *testing.T) {
	s := newTestServer(config.Config{Compress: true})
	body := fmt.Sprintf(`{"template": %s, "inputs": [{"name": "Plain"}], "options": {"compress": false}}`, badgeTemplate)

	rec := do(t, s, http.MethodPost, "/api/generate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("(Plain) Tj")) {
		t.Error("expected an uncompressed content stream")
	}
}

func TestGenerateClientErrors(t *testing.T) {
	s := newTestServer(config.Config{})
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed body", `{"template":`, "invalid JSON body"},
		{"missing inputs", fmt.Sprintf(`{"template": %s}`, badgeTemplate), "required"},
		{"invalid template", `{"template": {"basePdf": {"width": -1, "height": 10}, "schemas": [[]]}, "inputs": []}`, "basePdf.width"},
		{"invalid inputs", fmt.Sprintf(`{"template": %s, "inputs": {"name": "x"}}`, badgeTemplate), "invalid input"},
		{"invalid language", fmt.Sprintf(`{"template": %s, "inputs": [], "options": {"language": "not a tag!"}}`, badgeTemplate), "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/generate", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if msg := errorMessage(t, rec); !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want it to mention %q", msg, tt.want)
			}
		})
	}
}

func TestGenerateBodyLimit(t *testing.T) {
	s := newTestServer(config.Config{MaxBodyBytes: 64})
	body := fmt.Sprintf(`{"template": %s, "inputs": []}`, badgeTemplate)

	rec := do(t, s, http.MethodPost, "/api/generate", body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&pdftpl.Error{Op: "GenerateJSON", Err: fmt.Errorf("%w: bad", pdftpl.ErrInvalidTemplate)}, http.StatusBadRequest},
		{&pdftpl.Error{Op: "GenerateJSON", Err: fmt.Errorf("%w: bad", pdftpl.ErrInvalidInput)}, http.StatusBadRequest},
		{&pdftpl.Error{Op: "GenerateJSON", Err: fmt.Errorf("%w: NaN", pdftpl.ErrEncoding)}, http.StatusInternalServerError},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	s := newTestServer(config.Config{})

	rec := do(t, s, http.MethodPost, "/api/validate", fmt.Sprintf(`{"template": %s}`, badgeTemplate), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var report struct {
		Valid  bool          `json:"valid"`
		Pages  int           `json:"pages"`
		Fields []fieldReport `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if !report.Valid || report.Pages != 1 || len(report.Fields) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !report.Fields[0].Drawn || report.Fields[1].Drawn {
		t.Errorf("drawn flags = %v, %v; want true, false", report.Fields[0].Drawn, report.Fields[1].Drawn)
	}

	rec = do(t, s, http.MethodPost, "/api/validate", `{"template": {"basePdf": {"width": 10, "height": 10}, "schemas": [[{"name": "", "type": "text", "position": {"x": 0, "y": 0}}]]}}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var failure map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &failure); err != nil {
		t.Fatal(err)
	}
	if failure["valid"] != false || failure["path"] != "schemas[0][0].name" {
		t.Errorf("unexpected failure report: %v", failure)
	}
}

func signedToken(t *testing.T, method jwt.SigningMethod, key any, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": "tester",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestAuth(t *testing.T) {
	s := newTestServer(config.Config{JWTSecret: testSecret})
	body := fmt.Sprintf(`{"template": %s}`, badgeTemplate)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
		{"wrong key", "Bearer " + signedToken(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"), future), http.StatusUnauthorized},
		{"wrong method", "Bearer " + signedToken(t, jwt.SigningMethodHS512, []byte(testSecret), future), http.StatusUnauthorized},
		{"expired", "Bearer " + signedToken(t, jwt.SigningMethodHS256, []byte(testSecret), time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"valid", "Bearer " + signedToken(t, jwt.SigningMethodHS256, []byte(testSecret), future), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			rec := do(t, s, http.MethodPost, "/api/validate", body, header)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// Health stays public.
	if rec := do(t, s, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}
