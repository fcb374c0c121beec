package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lvillar/pdftpl"
	"github.com/lvillar/pdftpl/render"
	"github.com/lvillar/pdftpl/template"
)

// DiagnosticsHeader carries the number of fields that were reported but not
// drawn as requested.
const DiagnosticsHeader = "X-Pdftpl-Diagnostics"

type generateRequest struct {
	Template json.RawMessage `json:"template"`
	Inputs   json.RawMessage `json:"inputs"`
	Options  requestOptions  `json:"options"`
}

type requestOptions struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Keywords string `json:"keywords"`
	Creator  string `json:"creator"`
	Language string `json:"language"`
	Compress *bool  `json:"compress"`
}

func (o requestOptions) apply(defaultCompress bool) []pdftpl.Option {
	compress := defaultCompress
	if o.Compress != nil {
		compress = *o.Compress
	}
	return []pdftpl.Option{
		pdftpl.WithCompression(compress),
		pdftpl.WithTitle(o.Title),
		pdftpl.WithAuthor(o.Author),
		pdftpl.WithSubject(o.Subject),
		pdftpl.WithKeywords(o.Keywords),
		pdftpl.WithCreator(o.Creator),
		pdftpl.WithLanguage(o.Language),
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Template) == 0 || len(req.Inputs) == 0 {
		jsonError(w, "template and inputs are required", http.StatusBadRequest)
		return
	}

	log := s.log.With("request_id", middleware.GetReqID(r.Context()))
	if sub := Subject(r.Context()); sub != "" {
		log = log.With("subject", sub)
	}

	diagnostics := 0
	opts := append(req.Options.apply(s.cfg.Compress),
		pdftpl.WithLogger(log),
		pdftpl.WithDiagnosticHandler(func(int, render.Diagnostic) { diagnostics++ }),
	)

	out, err := pdftpl.GenerateJSON(req.Template, req.Inputs, opts...)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error("generation failed", "error", err)
		}
		jsonError(w, err.Error(), status)
		return
	}

	log.Info("generated", "bytes", len(out), "diagnostics", diagnostics)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Header().Set(DiagnosticsHeader, strconv.Itoa(diagnostics))
	w.Write(out)
}

type validateRequest struct {
	Template json.RawMessage `json:"template"`
}

type fieldReport struct {
	Page  int    `json:"page"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Drawn bool   `json:"drawn"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tpl, err := template.Parse(req.Template)
	if err != nil {
		resp := map[string]any{"valid": false, "error": err.Error()}
		var verr *template.ValidationError
		if errors.As(err, &verr) {
			resp["path"] = verr.Path
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	fields := make([]fieldReport, 0, tpl.Fields())
	for i, page := range tpl.Schemas {
		for _, f := range page {
			fields = append(fields, fieldReport{
				Page:  i + 1,
				Name:  f.Name,
				Type:  f.Type,
				Drawn: f.Kind() == template.KindText,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  true,
		"pages":  tpl.PageCount(),
		"fields": fields,
	})
}

// statusFor maps a generation error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pdftpl.ErrInvalidTemplate), errors.Is(err, pdftpl.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
