// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus metrics for guide generation.
package metrics

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/senvora/epg/internal/epg"
)

// Drop reasons for epg_programmes_dropped_total.
const (
	DropInvalid       = "invalid"
	DropOutsideWindow = "outside_window"
)

var (
	providerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epg_provider_runs_total",
		Help: "Provider runs by outcome",
	}, []string{"provider", "outcome"}) // outcome=success|failure

	providerRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "epg_provider_run_duration_seconds",
		Help:    "Duration of a provider run from fetch to write",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"provider"})

	providerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epg_provider_failures_total",
		Help: "Provider failures by stage",
	}, []string{"provider", "stage"}) // stage=fetch|decode|normalize|encode|write

	lastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epg_provider_last_success_timestamp_seconds",
		Help: "Unix time of the last successful provider run",
	}, []string{"provider"})

	channelsWritten = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epg_channels_written",
		Help: "Channels in the last written document",
	}, []string{"provider"})

	programmesWritten = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epg_programmes_written",
		Help: "Programmes in the last written document",
	}, []string{"provider"})

	programmesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epg_programmes_dropped_total",
		Help: "Programmes removed by the retention filter",
	}, []string{"provider", "reason"})

	channelCollisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epg_channel_id_collisions_total",
		Help: "Channel id collisions detected while renaming",
	}, []string{"provider", "kind"})

	outputBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epg_output_bytes",
		Help: "Size of the last compressed output",
	}, []string{"provider"})

	fetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epg_fetch_attempts_total",
		Help: "Source fetch attempts by kind and outcome",
	}, []string{"kind", "outcome"}) // kind=http|file outcome=success|error|status|too_large

	playlistEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epg_playlist_entries",
		Help: "Entries in the last merged playlist",
	})

	playlistSourceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epg_playlist_source_failures_total",
		Help: "Playlist sources that could not be fetched",
	})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epg_config_reloads_total",
		Help: "Configuration reloads by outcome",
	}, []string{"outcome"})
)

// RecordProviderRun records the outcome and duration of one provider run.
func RecordProviderRun(provider string, success bool, d time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
		lastSuccess.WithLabelValues(provider).SetToCurrentTime()
	}
	providerRunsTotal.WithLabelValues(provider, outcome).Inc()
	providerRunDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordProviderFailure counts a failure at a pipeline stage.
func RecordProviderFailure(provider, stage string) {
	providerFailuresTotal.WithLabelValues(provider, stage).Inc()
}

// RecordPipeline publishes the counters of a normalization report.
func RecordPipeline(provider string, channels int, rep epg.Report) {
	channelsWritten.WithLabelValues(provider).Set(float64(channels))
	programmesWritten.WithLabelValues(provider).Set(float64(rep.Filter.Kept))
	programmesDropped.WithLabelValues(provider, DropInvalid).Add(float64(rep.Filter.Invalid))
	programmesDropped.WithLabelValues(provider, DropOutsideWindow).Add(float64(rep.Filter.OutsideWindow))
	for _, c := range rep.Rename.Collisions {
		channelCollisions.WithLabelValues(provider, string(c.Kind)).Inc()
	}
}

// RecordOutputBytes records the size of the compressed artifact.
func RecordOutputBytes(provider string, n int) {
	outputBytes.WithLabelValues(provider).Set(float64(n))
}

// RecordFetch counts one fetch attempt.
func RecordFetch(kind, outcome string) {
	fetchAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordPlaylist records a finished playlist merge.
func RecordPlaylist(entries, failedSources int) {
	playlistEntries.Set(float64(entries))
	playlistSourceFailures.Add(float64(failedSources))
}

// RecordConfigReload counts a configuration reload.
func RecordConfigReload(success bool) {
	if success {
		configReloads.WithLabelValues("success").Inc()
		return
	}
	configReloads.WithLabelValues("failure").Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile writes the default registry in the node_exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
