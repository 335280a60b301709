// Package api serves cover rendering over HTTP.
//
// Routes:
//
//	GET  /api/health
//	GET  /api/templates
//	GET  /api/templates/{key}
//	GET  /api/templates/{key}/csv
//	POST /api/render
//	POST /api/preview?max=N
//
// Render and preview take a JSON [template.RenderInput] and answer with
// image/png. Failures are JSON objects carrying the error code and message,
// with the HTTP status derived from the code.
package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/coverkit/pkg/compose"
	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/pipeline"
	"github.com/matzehuels/coverkit/pkg/template"
)

// MaxBodyBytes bounds render request bodies.
const MaxBodyBytes = 1 << 20

// Config configures a Server.
type Config struct {
	Runner *pipeline.Runner
	Store  template.Store
	Logger *log.Logger

	// AssetDir, when set, is the root for image paths in render requests.
	// Paths must then be relative and stay inside it. Empty serves paths
	// as given.
	AssetDir string

	// PreviewSize is the default longest preview edge.
	PreviewSize int
}

// Server is the HTTP front-end over a [pipeline.Runner].
type Server struct {
	runner      *pipeline.Runner
	store       template.Store
	logger      *log.Logger
	assetDir    string
	previewSize int
	router      chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		runner:      cfg.Runner,
		store:       cfg.Store,
		logger:      cfg.Logger,
		assetDir:    cfg.AssetDir,
		previewSize: cfg.PreviewSize,
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, nil)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.previewSize <= 0 {
		s.previewSize = pipeline.DefaultPreviewSize
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{key}", s.handleGetTemplate)
		r.Get("/templates/{key}/csv", s.handleTemplateCSV)
		r.With(middleware.AllowContentType("application/json")).Post("/render", s.handleRender)
		r.With(middleware.AllowContentType("application/json")).Post("/preview", s.handlePreview)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// resolveAssets rewrites the image paths of in against the asset directory.
func (s *Server) resolveAssets(in *template.RenderInput) error {
	if s.assetDir == "" {
		return nil
	}
	resolve := func(p string) (string, error) {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, compose.QRPrefix) {
			return p, nil
		}
		if err := errors.ValidateOutputName(p); err != nil {
			return "", errors.New(errors.ErrCodeInvalidPath, "image path %q must be relative to the asset directory", p)
		}
		return filepath.Join(s.assetDir, p), nil
	}

	var err error
	if in.BackgroundPath, err = resolve(in.BackgroundPath); err != nil {
		return err
	}
	for k, p := range in.SlotPaths {
		if in.SlotPaths[k], err = resolve(p); err != nil {
			return err
		}
	}
	return nil
}
