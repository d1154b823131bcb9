// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/epg"
	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/metrics"
	"github.com/senvora/epg/internal/source"
	"github.com/senvora/epg/internal/telemetry"
)

// Options builds the pipeline options for p from the global configuration.
// now is converted to the target zone.
func Options(cfg config.AppConfig, p config.Provider, now time.Time) (epg.Options, error) {
	loc, err := epg.ParseOffset(cfg.Timezone)
	if err != nil {
		return epg.Options{}, fmt.Errorf("timezone: %w", err)
	}
	if strings.TrimSpace(p.BaseTime) == "" {
		return epg.Options{}, config.ErrMissingBaseTime
	}
	base, err := epg.ParseBaseTime(p.BaseTime)
	if err != nil {
		return epg.Options{}, fmt.Errorf("baseTime: %w", err)
	}
	bound, err := epg.ParseBoundaryPolicy(cfg.Boundary)
	if err != nil {
		return epg.Options{}, fmt.Errorf("boundary: %w", err)
	}
	lang, err := epg.ParseLanguagePolicy(cfg.Language)
	if err != nil {
		return epg.Options{}, fmt.Errorf("language: %w", err)
	}

	suffix := p.ChannelSuffix
	if suffix == "" {
		suffix = epg.SuffixForProvider(p.Name)
	}

	return epg.Options{
		Location:  loc,
		Suffix:    suffix,
		BaseTime:  base,
		Bound:     bound,
		Language:  lang,
		Generator: epg.Generator{Name: cfg.Generator.Name, URL: cfg.Generator.URL},
		Now:       now.In(loc),
	}, nil
}

// OutputPath is where p's compressed document is written.
func OutputPath(dataDir string, p config.Provider) string {
	return filepath.Join(dataDir, p.Output)
}

// XMLPath is where the uncompressed copy of output is written.
func XMLPath(output string) string {
	if trimmed, ok := strings.CutSuffix(output, ".gz"); ok {
		return trimmed
	}
	return output + ".xml"
}

// RunProvider fetches, normalizes and writes one provider's guide. On error
// nothing is written and the previous output is left as it was; the error
// is always a *ProviderError.
func RunProvider(ctx context.Context, deps Deps, p config.Provider) (*Result, error) {
	start := time.Now()
	ctx = xglog.ContextWithProvider(ctx, p.Name)
	ctx, span := telemetry.Tracer("epg/jobs").Start(ctx, "provider.run",
		trace.WithAttributes(telemetry.ProviderAttributes(p.Name, source.Host(p.Source))...))
	defer span.End()

	logger := xglog.WithComponentFromContext(ctx, "jobs")
	logger.Info().
		Str(xglog.FieldEvent, "provider.start").
		Str(xglog.FieldHost, source.Host(p.Source)).
		Msg("starting provider run")

	fail := func(stage Stage, err error) (*Result, error) {
		perr := &ProviderError{Provider: p.Name, Source: p.Source, Stage: stage, Err: err}
		telemetry.RecordError(span, perr, string(stage))
		metrics.RecordProviderFailure(p.Name, string(stage))
		metrics.RecordProviderRun(p.Name, false, time.Since(start))
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "provider.failed").
			Str(xglog.FieldStage, string(stage)).
			Str(xglog.FieldHost, source.Host(p.Source)).
			Msg("provider run failed")
		return nil, perr
	}

	if deps.Fetcher == nil {
		return fail(StageConfig, errors.New("no fetcher configured"))
	}
	opts, err := Options(deps.Config, p, deps.now())
	if err != nil {
		return fail(StageConfig, err)
	}

	raw, err := deps.Fetcher.Fetch(ctx, p.Source)
	if err != nil {
		return fail(StageFetch, err)
	}

	tv, err := stage(ctx, "decode", func() (*epg.TV, error) { return epg.DecodeBytes(raw) })
	if err != nil {
		return fail(StageDecode, err)
	}

	report, err := stage(ctx, "normalize", func() (epg.Report, error) { return epg.Normalize(tv, opts) })
	if err != nil {
		return fail(StageNormalize, err)
	}
	for _, c := range report.Rename.Collisions {
		logger.Warn().
			Str(xglog.FieldEvent, "epg.channel_collision").
			Str("kind", string(c.Kind)).
			Str("id", c.ID).
			Str("previous", c.Previous).
			Str("current", c.Current).
			Msg("channel id collision, last channel wins")
	}

	doc, err := epg.Encode(tv)
	if err != nil {
		return fail(StageEncode, err)
	}
	gz, err := epg.Compress(doc)
	if err != nil {
		return fail(StageEncode, err)
	}

	result := &Result{
		Provider:    p.Name,
		Output:      OutputPath(deps.Config.DataDir, p),
		GeneratedAt: opts.Now,
	}
	if err := writeAtomic(ctx, result.Output, gz); err != nil {
		return fail(StageWrite, err)
	}
	if p.KeepXML {
		result.XMLOutput = XMLPath(result.Output)
		if err := writeAtomic(ctx, result.XMLOutput, doc); err != nil {
			return fail(StageWrite, err)
		}
	}

	elapsed := time.Since(start)
	result.Stats = Stats{
		Channels:             len(tv.Channels),
		ProgrammesIn:         report.ProgrammesIn,
		ProgrammesOut:        len(tv.Programmes),
		DroppedInvalid:       report.Filter.Invalid,
		DroppedOutsideWindow: report.Filter.OutsideWindow,
		Collisions:           len(report.Rename.Collisions),
		Bytes:                len(gz),
		DurationMS:           elapsed.Milliseconds(),
	}

	span.SetAttributes(telemetry.PipelineAttributes(
		result.Stats.Channels, result.Stats.ProgrammesIn, result.Stats.ProgrammesOut, result.Stats.Collisions)...)
	span.SetAttributes(attribute.Int(telemetry.BytesKey, len(gz)))
	metrics.RecordPipeline(p.Name, result.Stats.Channels, report)
	metrics.RecordOutputBytes(p.Name, len(gz))
	metrics.RecordProviderRun(p.Name, true, elapsed)

	logger.Info().
		Str(xglog.FieldEvent, "provider.done").
		Str(xglog.FieldOutput, result.Output).
		Int(xglog.FieldChannels, result.Stats.Channels).
		Int(xglog.FieldProgrammes, result.Stats.ProgrammesOut).
		Int("dropped_invalid", result.Stats.DroppedInvalid).
		Int("dropped_outside_window", result.Stats.DroppedOutsideWindow).
		Int(xglog.FieldBytes, len(gz)).
		Int64(xglog.FieldDuration, result.Stats.DurationMS).
		Msg("provider run complete")

	return result, nil
}

// stage runs fn inside a child span named after the pipeline step.
func stage[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	_, span := telemetry.Tracer("epg/jobs").Start(ctx, "epg."+name,
		trace.WithAttributes(attribute.String(telemetry.StageKey, name)))
	defer span.End()
	v, err := fn()
	telemetry.RecordError(span, err, name)
	return v, err
}
