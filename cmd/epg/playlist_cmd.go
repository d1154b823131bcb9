// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/senvora/epg/internal/daemon"
	"github.com/senvora/epg/internal/playlist"
)

func newPlaylistCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist",
		Short: "Merge selected channels from remote playlists into the local one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.Playlist.Enabled() {
				return errors.New("playlist merge is not configured (playlist.sources / REMOTE_URLS and playlist.output)")
			}

			rep, err := playlist.Run(cmd.Context(), cfg.Playlist, daemon.NewFetcher(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries (%d updated, %d added, %d sources failed)\n",
				rep.Entries, rep.Updated, rep.Added, rep.FailedSources)
			return nil
		},
	}
}
