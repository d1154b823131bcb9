// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"

	"github.com/senvora/epg/internal/api"
	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/daemon"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Refresh periodically and serve the results over HTTP",
		Long: "Run every provider (and the playlist merge when configured) now and then every\n" +
			"server.refreshInterval, serving /epg/{file}, /playlist.m3u, /status, /healthz, /readyz and /metrics.\n" +
			"The config file is reloaded on change or SIGHUP.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			shutdown, err := startTelemetry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			holder := config.NewConfigHolder(cfg, loader)
			defer holder.Stop()

			app := daemon.NewApp(holder, daemon.Refresh, api.New(holder).Handler())
			return app.Run(cmd.Context())
		},
	}
}
