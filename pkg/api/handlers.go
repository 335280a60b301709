package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/coverkit/pkg/batch"
	"github.com/matzehuels/coverkit/pkg/buildinfo"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/pipeline"
	"github.com/matzehuels/coverkit/pkg/template"
)

// TemplateSummary is one entry of the template listing.
type TemplateSummary struct {
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Slots  []string `json:"slots"`
	Texts  []string `json:"texts"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func summarize(d *template.Definition) TemplateSummary {
	return TemplateSummary{
		Key:    d.Key,
		Name:   d.Name,
		Width:  d.Width,
		Height: d.Height,
		Slots:  d.SlotKeys(),
		Texts:  d.TextKeys(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Get().Version,
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	defs, err := s.templates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]TemplateSummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, summarize(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	def, err := s.template(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template.Encode(def))
}

func (s *Server) handleTemplateCSV(w http.ResponseWriter, r *http.Request) {
	def, err := s.template(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := batch.WriteHeader(&buf, def); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "export csv header"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+def.Key+`.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.renderPNG(w, r, false, pipeline.Options{})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.Options{PreviewSize: s.previewSize}
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "max must be a positive integer, got %q", raw))
			return
		}
		opts.PreviewSize = n
	}
	s.renderPNG(w, r, true, opts)
}

func (s *Server) renderPNG(w http.ResponseWriter, r *http.Request, preview bool, opts pipeline.Options) {
	var in template.RenderInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode render input"))
		return
	}
	if in.TemplateKey == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "template_key is required"))
		return
	}
	if err := s.resolveAssets(&in); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	def, err := s.template(ctx, in.TemplateKey)
	if err != nil {
		writeError(w, err)
		return
	}

	opts.Logger = s.logger.With("id", RequestID(ctx))
	var res *pipeline.Result
	if preview {
		res, err = s.runner.Preview(ctx, def, in, opts)
	} else {
		res, err = s.runner.Render(ctx, def, in, opts)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	cacheStatus := "MISS"
	if res.Cached {
		cacheStatus = "HIT"
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PNG)
}

// template looks up key. Without a store only the built-in default exists.
func (s *Server) template(ctx context.Context, key string) (*template.Definition, error) {
	if s.store == nil {
		def := template.Default()
		if key != def.Key {
			return nil, template.NotFound(key, []string{def.Key})
		}
		return def, nil
	}
	return s.store.Get(ctx, key)
}

func (s *Server) templates(ctx context.Context) ([]*template.Definition, error) {
	if s.store == nil {
		return []*template.Definition{template.Default()}, nil
	}
	return s.store.List(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}
