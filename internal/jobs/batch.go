// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/senvora/epg/internal/config"
	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/metrics"
	"github.com/senvora/epg/internal/telemetry"
)

// StatusFile is written into the data directory after every batch.
const StatusFile = "status.json"

// ProviderStatus is the outcome of one provider within a batch.
type ProviderStatus struct {
	Provider    string    `json:"provider"`
	Output      string    `json:"output"`
	OK          bool      `json:"ok"`
	Stage       Stage     `json:"stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Stats       *Stats    `json:"stats,omitempty"`
}

// BatchStatus summarizes one RunBatch call.
type BatchStatus struct {
	JobID      string           `json:"job_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Providers  []ProviderStatus `json:"providers"`
}

// RunBatch runs every provider with at most Config.Concurrency in flight.
// A failing provider does not stop the others. The returned error joins
// every *ProviderError in provider order and is nil when all succeeded.
func RunBatch(ctx context.Context, deps Deps, providers []config.Provider) (*BatchStatus, error) {
	jobID := uuid.NewString()
	ctx = xglog.ContextWithJobID(ctx, jobID)
	ctx, span := telemetry.Tracer("epg/jobs").Start(ctx, "batch.run")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.JobIDKey, jobID), attribute.Int("epg.providers", len(providers)))

	logger := xglog.WithComponentFromContext(ctx, "jobs")
	status := &BatchStatus{
		JobID:     jobID,
		StartedAt: time.Now().UTC(),
		Providers: make([]ProviderStatus, len(providers)),
	}
	logger.Info().
		Str(xglog.FieldEvent, "batch.start").
		Int("providers", len(providers)).
		Int("concurrency", max(deps.Config.Concurrency, 1)).
		Msg("starting batch")

	errs := make([]error, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(deps.Config.Concurrency, 1))
	for i, p := range providers {
		g.Go(func() error {
			ps := ProviderStatus{Provider: p.Name, Output: p.Output}
			res, err := RunProvider(gctx, deps, p)
			if err != nil {
				errs[i] = err
				ps.Error = err.Error()
				var perr *ProviderError
				if errors.As(err, &perr) {
					ps.Stage = perr.Stage
					ps.Error = perr.Err.Error()
				}
			} else {
				ps.OK = true
				ps.GeneratedAt = res.GeneratedAt
				ps.Stats = &res.Stats
			}
			status.Providers[i] = ps
			return nil
		})
	}
	_ = g.Wait()

	status.FinishedAt = time.Now().UTC()
	for _, ps := range status.Providers {
		if ps.OK {
			status.Succeeded++
		} else {
			status.Failed++
		}
	}
	batchErr := errors.Join(errs...)
	telemetry.RecordError(span, batchErr, "batch")

	if err := WriteStatus(ctx, deps.Config.DataDir, status); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "batch.status_write_failed").Msg("could not write batch status")
	}
	if path := deps.Config.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldPath, path).Msg("could not write metrics textfile")
		}
	}

	logger.Info().
		Str(xglog.FieldEvent, "batch.done").
		Int("succeeded", status.Succeeded).
		Int("failed", status.Failed).
		Int64(xglog.FieldDuration, status.FinishedAt.Sub(status.StartedAt).Milliseconds()).
		Msg("batch complete")

	return status, batchErr
}

// WriteStatus stores status as StatusFile in dataDir.
func WriteStatus(ctx context.Context, dataDir string, status *BatchStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(ctx, filepath.Join(dataDir, StatusFile), append(data, '\n'))
}

// ReadStatus loads the last batch status from dataDir.
func ReadStatus(dataDir string) (*BatchStatus, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, StatusFile)) // #nosec G304
	if err != nil {
		return nil, err
	}
	var status BatchStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
