// SPDX-License-Identifier: MIT

// Command epg normalizes provider XMLTV guides and merges M3U playlists.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/senvora/epg/internal/config"
	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/telemetry"
	"github.com/senvora/epg/internal/version"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "epg",
		Short:         "Normalize XMLTV guides and merge M3U playlists",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML)")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newPlaylistCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func main() {
	xglog.Configure(xglog.Config{Level: "info", Service: "epg", Version: version.Version})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "epg: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and applies its logging settings.
func loadConfig(opts *rootOptions) (*config.Loader, config.AppConfig, error) {
	loader := config.NewLoader(opts.configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	xglog.Reconfigure(xglog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "epg", Version: version.Version})

	logger := xglog.WithComponent("cli")
	event := logger.Info().Str(xglog.FieldEvent, "config.loaded").Int("providers", len(cfg.Providers))
	if path := loader.Path(); path != "" {
		event = event.Str(xglog.FieldPath, path)
	}
	event.Msg("configuration loaded")
	return loader, cfg, nil
}

// startTelemetry installs the tracer provider and returns its shutdown func.
func startTelemetry(ctx context.Context, cfg config.AppConfig) (func(), error) {
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "epg",
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger := xglog.WithComponent("cli")
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}, nil
}
