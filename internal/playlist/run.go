// SPDX-License-Identifier: MIT
package playlist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/senvora/epg/internal/config"
	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/m3u"
	"github.com/senvora/epg/internal/metrics"
	"github.com/senvora/epg/internal/source"
	"github.com/senvora/epg/internal/telemetry"
)

// ErrNoSources is returned when every remote source failed.
var ErrNoSources = errors.New("no playlist source could be fetched")

// Fetcher retrieves the raw bytes of a source location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Report summarizes one Run.
type Report struct {
	Output        string `json:"output"`
	Sources       int    `json:"sources"`
	FailedSources int    `json:"failed_sources"`
	Selected      int    `json:"selected"`
	Matched       int    `json:"matched"`
	Updated       int    `json:"updated"`
	Added         int    `json:"added"`
	Entries       int    `json:"entries"`
}

// Run fetches every configured source, takes the selected channels, merges
// them into the playlist at cfg.Output and replaces it atomically. A source
// that fails is logged and skipped; when all fail nothing is written.
func Run(ctx context.Context, cfg config.PlaylistConfig, fetcher Fetcher) (*Report, error) {
	ctx, span := telemetry.Tracer("epg/playlist").Start(ctx, "playlist.run")
	defer span.End()
	logger := xglog.WithComponentFromContext(ctx, "playlist")

	if cfg.Selection == "" || cfg.Output == "" {
		return nil, errors.New("playlist selection and output must be configured")
	}
	names, err := LoadSelection(cfg.Selection)
	if err != nil {
		telemetry.RecordError(span, err, "selection")
		return nil, err
	}

	rep := &Report{Output: cfg.Output, Sources: len(cfg.Sources), Selected: len(names)}
	remote := m3u.NewBlocks()
	for _, src := range cfg.Sources {
		host := source.Host(src)
		logger.Info().Str(xglog.FieldEvent, "playlist.fetch").Str(xglog.FieldHost, host).Msg("fetching playlist")

		data, err := fetcher.Fetch(ctx, src)
		if err != nil {
			rep.FailedSources++
			logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "playlist.source_failed").
				Str(xglog.FieldHost, host).
				Msg("skipping playlist source")
			continue
		}
		Select(remote, m3u.ParseBlocks(string(data)), names, cfg.FuzzyMax)
	}
	if rep.Sources > 0 && rep.FailedSources == rep.Sources {
		metrics.RecordPlaylist(0, rep.FailedSources)
		telemetry.RecordError(span, ErrNoSources, "fetch")
		return rep, ErrNoSources
	}
	rep.Matched = remote.Len()

	local, err := readLocal(cfg.Output)
	if err != nil {
		telemetry.RecordError(span, err, "read")
		return rep, err
	}
	st := Merge(local, remote)
	rep.Updated, rep.Added, rep.Entries = st.Updated, st.Added, local.Len()

	if err := writePlaylist(ctx, cfg.Output, local); err != nil {
		telemetry.RecordError(span, err, "write")
		return rep, err
	}

	metrics.RecordPlaylist(rep.Entries, rep.FailedSources)
	span.SetAttributes(
		attribute.Int("playlist.entries", rep.Entries),
		attribute.Int("playlist.failed_sources", rep.FailedSources),
	)
	logger.Info().
		Str(xglog.FieldEvent, "playlist.done").
		Str(xglog.FieldOutput, cfg.Output).
		Int("matched", rep.Matched).
		Int("updated", rep.Updated).
		Int("added", rep.Added).
		Int(xglog.FieldChannels, rep.Entries).
		Msg("playlist merged")
	return rep, nil
}

func readLocal(path string) (*m3u.Blocks, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return m3u.NewBlocks(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local playlist: %w", err)
	}
	return m3u.ParseBlocks(string(data)), nil
}

func writePlaylist(ctx context.Context, path string, blocks *m3u.Blocks) error {
	logger := xglog.FromContext(ctx)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create playlist dir: %w", err)
	}
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending M3U file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending M3U file")
		}
	}()

	if err := WriteM3U(pendingFile, blocks); err != nil {
		return fmt.Errorf("write M3U data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace M3U file: %w", err)
	}
	return nil
}
