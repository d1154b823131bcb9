// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"

	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/jobs"
	"github.com/senvora/epg/internal/playlist"
	"github.com/senvora/epg/internal/source"
)

// NewFetcher builds the source fetcher described by cfg.Fetch.
func NewFetcher(cfg config.AppConfig) *source.Fetcher {
	return source.New(source.Options{
		Timeout:   cfg.Fetch.Timeout,
		Retries:   cfg.Fetch.Retries,
		UserAgent: cfg.Fetch.UserAgent,
		RateLimit: cfg.Fetch.RateLimit,
		MaxBytes:  cfg.Fetch.MaxBytes,
	})
}

// Refresh runs every enabled provider and then, when configured, the
// playlist merge. Errors of both are joined.
func Refresh(ctx context.Context, cfg config.AppConfig) error {
	fetcher := NewFetcher(cfg)

	_, err := jobs.RunBatch(ctx, jobs.Deps{Config: cfg, Fetcher: fetcher}, cfg.EnabledProviders())
	if cfg.Playlist.Enabled() {
		if _, perr := playlist.Run(ctx, cfg.Playlist, fetcher); perr != nil {
			err = errors.Join(err, perr)
		}
	}
	return err
}
