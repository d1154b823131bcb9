// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/daemon"
	"github.com/senvora/epg/internal/jobs"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [provider...]",
		Short: "Generate guides once",
		Long: "Fetch, normalize and write the guide of every enabled provider, or only of the named ones.\n" +
			"Exits non-zero when any provider failed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			providers, err := selectProviders(cfg, args)
			if err != nil {
				return err
			}

			shutdown, err := startTelemetry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			deps := jobs.Deps{Config: cfg, Fetcher: daemon.NewFetcher(cfg)}
			status, err := jobs.RunBatch(cmd.Context(), deps, providers)
			if status != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%d succeeded, %d failed\n", status.Succeeded, status.Failed)
			}
			return err
		},
	}
}

// selectProviders returns the named providers, or every enabled one when
// names is empty. Naming a disabled provider runs it anyway.
func selectProviders(cfg config.AppConfig, names []string) ([]config.Provider, error) {
	if len(names) == 0 {
		return cfg.EnabledProviders(), nil
	}
	out := make([]config.Provider, 0, len(names))
	var unknown []string
	for _, name := range names {
		p, ok := cfg.Provider(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, p)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown provider(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
