// SPDX-License-Identifier: MIT
package config

import "time"

// AppConfig is the resolved runtime configuration (defaults, then file, then env).
type AppConfig struct {
	Version string

	DataDir  string
	Timezone string // fixed UTC offset, e.g. "+05:30"

	Boundary  string // "inclusive" or "exclusive"
	Language  string // "strict" or "prefer-english"
	Generator GeneratorConfig

	Concurrency int

	Log       LogConfig
	Fetch     FetchConfig
	Providers []Provider
	Playlist  PlaylistConfig
	Server    ServerConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

// GeneratorConfig is stamped on the root element of every output document.
type GeneratorConfig struct {
	Name string
	URL  string
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string
	Format string
}

// FetchConfig controls source retrieval.
type FetchConfig struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	// RateLimit is the maximum number of requests per second across all
	// providers. Zero disables limiting.
	RateLimit float64
	MaxBytes  int64
}

// Provider is one upstream guide and its output file.
type Provider struct {
	Name   string
	Source string
	Output string // file name inside DataDir
	// BaseTime states how bare timestamps are read: "local" or "utc". Required.
	BaseTime string
	// ChannelSuffix overrides the suffix derived from Name.
	ChannelSuffix string
	// KeepXML also writes the uncompressed document next to Output.
	KeepXML  bool
	Disabled bool
}

// PlaylistConfig drives the M3U merge.
type PlaylistConfig struct {
	Sources   []string
	Selection string // file listing the channel names to take over
	Output    string // merged playlist path, also the local base
	FuzzyMax  int    // max edit distance for name matching, 0 = exact
}

// Enabled reports whether a playlist merge is configured.
func (p PlaylistConfig) Enabled() bool {
	return len(p.Sources) > 0 && p.Output != ""
}

// ServerConfig controls serve mode.
type ServerConfig struct {
	ListenAddr      string
	RefreshInterval time.Duration
	RateLimit       int // requests per minute per client IP, 0 disables
	ShutdownTimeout time.Duration
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	Textfile string // node_exporter textfile written after each batch
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	ExporterType string // "grpc" or "http"
	Endpoint     string
	SamplingRate float64
}

// EnabledProviders returns the providers that are not disabled, in configured order.
func (c AppConfig) EnabledProviders() []Provider {
	out := make([]Provider, 0, len(c.Providers))
	for _, p := range c.Providers {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}

// Provider looks a provider up by name.
func (c AppConfig) Provider(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// FileConfig mirrors the YAML file. Pointer fields distinguish "unset" from zero.
type FileConfig struct {
	DataDir     string         `yaml:"dataDir,omitempty"`
	Timezone    string         `yaml:"timezone,omitempty"`
	Boundary    string         `yaml:"boundary,omitempty"`
	Language    string         `yaml:"language,omitempty"`
	Concurrency *int           `yaml:"concurrency,omitempty"`
	Generator   *GeneratorFile `yaml:"generator,omitempty"`
	Log         *LogFile       `yaml:"log,omitempty"`
	Fetch       *FetchFile     `yaml:"fetch,omitempty"`
	Providers   []ProviderFile `yaml:"providers,omitempty"`
	Playlist    *PlaylistFile  `yaml:"playlist,omitempty"`
	Server      *ServerFile    `yaml:"server,omitempty"`
	Metrics     *MetricsFile   `yaml:"metrics,omitempty"`
	Telemetry   *TelemetryFile `yaml:"telemetry,omitempty"`
}

type GeneratorFile struct {
	Name string `yaml:"name,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

type LogFile struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type FetchFile struct {
	Timeout   string   `yaml:"timeout,omitempty"`
	Retries   *int     `yaml:"retries,omitempty"`
	UserAgent string   `yaml:"userAgent,omitempty"`
	RateLimit *float64 `yaml:"rateLimit,omitempty"`
	MaxBytes  *int64   `yaml:"maxBytes,omitempty"`
}

type ProviderFile struct {
	Name          string `yaml:"name"`
	Source        string `yaml:"source"`
	Output        string `yaml:"output,omitempty"`
	BaseTime      string `yaml:"baseTime"`
	ChannelSuffix string `yaml:"channelSuffix,omitempty"`
	KeepXML       bool   `yaml:"keepXML,omitempty"`
	Disabled      bool   `yaml:"disabled,omitempty"`
}

type PlaylistFile struct {
	Sources   []string `yaml:"sources,omitempty"`
	Selection string   `yaml:"selection,omitempty"`
	Output    string   `yaml:"output,omitempty"`
	FuzzyMax  *int     `yaml:"fuzzyMax,omitempty"`
}

type ServerFile struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	RefreshInterval string `yaml:"refreshInterval,omitempty"`
	RateLimit       *int   `yaml:"rateLimit,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

type MetricsFile struct {
	Textfile string `yaml:"textfile,omitempty"`
}

type TelemetryFile struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	ExporterType string   `yaml:"exporterType,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
