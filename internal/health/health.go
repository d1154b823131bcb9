// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness checks for serve mode.
// Readiness turns green once every enabled provider has a guide on disk.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	xglog "github.com/senvora/epg/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs a set of checkers.
type Manager struct {
	version  string
	checkers []Checker
	now      func() time.Time
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{version: version, now: time.Now}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

func (m *Manager) run(ctx context.Context) (map[string]CheckResult, Status) {
	checks := make(map[string]CheckResult, len(m.checkers))
	overall := StatusHealthy
	for _, checker := range m.checkers {
		result := checker.Check(ctx)
		checks[checker.Name()] = result
		switch {
		case result.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case result.Status == StatusDegraded && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}
	return checks, overall
}

// Health is the liveness view. Checks only run when verbose is set, so a
// missing guide never fails a liveness check.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: m.now().UTC(),
	}
	if verbose && len(m.checkers) > 0 {
		resp.Checks, resp.Status = m.run(ctx)
	}
	return resp
}

// Ready reports not ready when any checker is unhealthy. Degraded is still ready.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: m.now().UTC(),
	}
	if len(m.checkers) == 0 {
		return resp
	}
	resp.Checks, resp.Status = m.run(ctx)
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

// ServeHealth handles HTTP health check requests
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	resp := m.Health(r.Context(), verbose)
	// Always 200 for liveness
	m.write(w, r, http.StatusOK, resp, "health")
}

// ServeReady handles HTTP readiness check requests
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	m.write(w, r, code, resp, "readiness")

	logger := xglog.WithComponentFromContext(r.Context(), "readiness")
	logger.Debug().
		Str(xglog.FieldEvent, "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, code int, v any, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), kind)
		logger.Error().Err(err).Str(xglog.FieldEvent, kind+".encode_error").Msg("failed to encode response")
	}
}

// FileChecker checks that a generated file exists, is not empty and, when
// maxAge is set, is not older than maxAge.
type FileChecker struct {
	name   string
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewFileChecker creates a checker for a generated file.
func NewFileChecker(name, path string, maxAge time.Duration) *FileChecker {
	return &FileChecker{name: name, path: path, maxAge: maxAge, now: time.Now}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CheckResult{Status: StatusUnhealthy, Error: "file not generated yet", Message: filepath.Base(c.path)}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	if info.Size() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	if age := c.now().Sub(info.ModTime()); c.maxAge > 0 && age > c.maxAge {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("last written %s ago", age.Truncate(time.Second)),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "up to date"}
}

// LastRun summarizes the most recent batch.
type LastRun struct {
	Finished  time.Time
	Succeeded int
	Failed    int
}

// LastRunChecker reports the outcome of the most recent batch.
type LastRunChecker struct {
	getLastRun func() (LastRun, error)
}

// NewLastRunChecker creates a checker for the last batch. getLastRun
// returns an error wrapping os.ErrNotExist before the first batch.
func NewLastRunChecker(getLastRun func() (LastRun, error)) *LastRunChecker {
	return &LastRunChecker{getLastRun: getLastRun}
}

func (c *LastRunChecker) Name() string { return "last_batch" }

func (c *LastRunChecker) Check(_ context.Context) CheckResult {
	run, err := c.getLastRun()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CheckResult{Status: StatusUnhealthy, Message: "no batch has completed yet"}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	switch {
	case run.Failed > 0 && run.Succeeded == 0:
		return CheckResult{Status: StatusUnhealthy, Message: "every provider failed in the last batch"}
	case run.Failed > 0:
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("%d of %d providers failed in the last batch", run.Failed, run.Failed+run.Succeeded),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "last batch successful"}
}

// DataDirChecker verifies that the output directory is writable.
type DataDirChecker struct {
	path string
}

// NewDataDirChecker creates a checker for the output directory.
func NewDataDirChecker(path string) *DataDirChecker {
	return &DataDirChecker{path: path}
}

func (c *DataDirChecker) Name() string { return "data_dir" }

func (c *DataDirChecker) Check(_ context.Context) CheckResult {
	info, err := os.Stat(c.path)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "path is not a directory"}
	}
	tmp, err := os.CreateTemp(c.path, ".write_test")
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: "directory is not writable"}
	}
	_ = tmp.Close()
	_ = os.Remove(tmp.Name())
	return CheckResult{Status: StatusHealthy}
}
