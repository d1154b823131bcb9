// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/senvora/epg/internal/epg"
	"github.com/senvora/epg/internal/validate"
)

// Validate checks a resolved configuration. A provider without baseTime
// yields an error matching ErrMissingBaseTime.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Directory("dataDir", cfg.DataDir, false)
	if _, err := epg.ParseOffset(cfg.Timezone); err != nil {
		v.AddError("timezone", err.Error(), cfg.Timezone)
	}
	if _, err := epg.ParseBoundaryPolicy(cfg.Boundary); err != nil {
		v.AddError("boundary", err.Error(), cfg.Boundary)
	}
	if _, err := epg.ParseLanguagePolicy(cfg.Language); err != nil {
		v.AddError("language", err.Error(), cfg.Language)
	}
	v.NotEmpty("generator.name", cfg.Generator.Name)
	v.URL("generator.url", cfg.Generator.URL, []string{"http", "https"})
	v.Range("concurrency", cfg.Concurrency, 1, 64)

	v.OneOf("log.level", cfg.Log.Level, validate.LogLevels)
	v.OneOf("log.format", cfg.Log.Format, []string{"json", "console"})

	v.MinDuration("fetch.timeout", cfg.Fetch.Timeout, time.Second)
	v.Range("fetch.retries", cfg.Fetch.Retries, 0, 10)
	if cfg.Fetch.RateLimit < 0 {
		v.AddError("fetch.rateLimit", "value cannot be negative", cfg.Fetch.RateLimit)
	}
	if cfg.Fetch.MaxBytes <= 0 {
		v.AddError("fetch.maxBytes", "value must be positive", cfg.Fetch.MaxBytes)
	}

	missingBase := validateProviders(v, cfg.Providers)

	if cfg.Playlist.Enabled() {
		for i, src := range cfg.Playlist.Sources {
			v.Source(fmt.Sprintf("playlist.sources[%d]", i), src)
		}
		v.NotEmpty("playlist.selection", cfg.Playlist.Selection)
		v.NonNegative("playlist.fuzzyMax", cfg.Playlist.FuzzyMax)
	} else if len(cfg.Playlist.Sources) > 0 {
		v.AddError("playlist.output", "required when playlist sources are set", cfg.Playlist.Output)
	}

	validateListenAddr(v, cfg.Server.ListenAddr)
	v.MinDuration("server.refreshInterval", cfg.Server.RefreshInterval, time.Minute)
	v.MinDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout, time.Second)
	v.NonNegative("server.rateLimit", cfg.Server.RateLimit)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporterType", cfg.Telemetry.ExporterType, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("telemetry.samplingRate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	err := v.Err()
	if missingBase && err != nil {
		return errors.Join(ErrMissingBaseTime, err)
	}
	return err
}

func validateProviders(v *validate.Validator, providers []Provider) (missingBase bool) {
	if len(providers) == 0 {
		v.AddError("providers", "at least one provider is required", nil)
		return false
	}
	names := make(map[string]bool, len(providers))
	outputs := make(map[string]bool, len(providers))
	for i, p := range providers {
		field := fmt.Sprintf("providers[%d]", i)
		v.NotEmpty(field+".name", p.Name)
		if names[p.Name] {
			v.AddError(field+".name", "duplicate provider name", p.Name)
		}
		names[p.Name] = true

		v.Source(field+".source", p.Source)
		v.Filename(field+".output", p.Output)
		if outputs[p.Output] {
			v.AddError(field+".output", "output file shared with another provider", p.Output)
		}
		outputs[p.Output] = true

		if _, err := epg.ParseBaseTime(p.BaseTime); err != nil {
			if errors.Is(err, epg.ErrBaseTimeUnset) {
				missingBase = true
			}
			v.AddError(field+".baseTime", err.Error(), p.BaseTime)
		}
	}
	return missingBase
}

func validateListenAddr(v *validate.Validator, addr string) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError("server.listenAddr", err.Error(), addr)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError("server.listenAddr", "port must be numeric", addr)
		return
	}
	v.Port("server.listenAddr", port)
}
