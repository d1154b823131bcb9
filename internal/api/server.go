// SPDX-License-Identifier: MIT

// Package api serves generated guides, the merged playlist and run status
// over HTTP.
package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/health"
	"github.com/senvora/epg/internal/jobs"
	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/metrics"
)

// ConfigSource yields the current configuration. *config.ConfigHolder
// satisfies it, so reloads are picked up per request.
type ConfigSource interface {
	Get() config.AppConfig
}

// Server holds the HTTP handlers.
type Server struct {
	cfg ConfigSource
}

// New returns a Server reading its configuration from cfg.
func New(cfg ConfigSource) *Server {
	return &Server{cfg: cfg}
}

// Handler builds the router with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(securityHeaders)
	r.Use(observe)
	if limit := s.cfg.Get().Server.RateLimit; limit > 0 {
		r.Use(rateLimit(limit, time.Minute))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/status", s.handleStatus)
	r.Get("/epg/{file}", s.handleGuide)
	r.Get("/playlist.m3u", s.handlePlaylist)
	r.Handle("/metrics", metrics.Handler())

	return otelhttp.NewHandler(r, "epg.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// healthManager builds the checks from the current configuration: a
// writable data dir, one guide per enabled provider and the last batch.
func (s *Server) healthManager() *health.Manager {
	cfg := s.cfg.Get()
	m := health.NewManager(cfg.Version)
	m.RegisterChecker(health.NewDataDirChecker(cfg.DataDir))
	maxAge := 2 * cfg.Server.RefreshInterval
	for _, p := range cfg.EnabledProviders() {
		m.RegisterChecker(health.NewFileChecker("guide:"+p.Name, jobs.OutputPath(cfg.DataDir, p), maxAge))
	}
	m.RegisterChecker(health.NewLastRunChecker(func() (health.LastRun, error) {
		st, err := jobs.ReadStatus(cfg.DataDir)
		if err != nil {
			return health.LastRun{}, err
		}
		return health.LastRun{Finished: st.FinishedAt, Succeeded: st.Succeeded, Failed: st.Failed}, nil
	}))
	return m
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.healthManager().ServeHealth(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.healthManager().ServeReady(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := jobs.ReadStatus(s.cfg.Get().DataDir)
	if errors.Is(err, os.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no batch has completed yet"})
		return
	}
	if err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(xglog.FieldEvent, "status.read_failed").Msg("failed to read batch status")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "status unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// guidePath resolves a requested file name to a configured provider output.
// Only names produced by enabled providers are served.
func guidePath(cfg config.AppConfig, name string) (string, bool) {
	for _, p := range cfg.EnabledProviders() {
		out := jobs.OutputPath(cfg.DataDir, p)
		if name == p.Output {
			return out, true
		}
		if p.KeepXML && name == filepath.Base(jobs.XMLPath(out)) {
			return jobs.XMLPath(out), true
		}
	}
	return "", false
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	path, ok := guidePath(s.cfg.Get(), name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	contentType := "application/xml; charset=utf-8"
	if strings.HasSuffix(name, ".gz") {
		contentType = "application/gzip"
	}
	serveFile(w, r, path, contentType)
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	pl := s.cfg.Get().Playlist
	if pl.Output == "" {
		http.NotFound(w, r)
		return
	}
	serveFile(w, r, pl.Output, "audio/x-mpegurl; charset=utf-8")
}

func serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")

	// #nosec G304 -- path comes from configuration, never from the request
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug().Str(xglog.FieldEvent, "file.not_found").Str(xglog.FieldPath, path).Msg("file not generated yet")
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldPath, path).Msg("failed to open file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
