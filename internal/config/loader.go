package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/senvora/epg/internal/epg"
)

// Defaults.
const (
	DefaultDataDir         = "data"
	DefaultTimezone        = "+05:30"
	DefaultConcurrency     = 1
	DefaultFetchTimeout    = 60 * time.Second
	DefaultFetchRetries    = 3
	DefaultUserAgent       = "Mozilla/5.0 (compatible; senvora-epg/1.0)"
	DefaultListenAddr      = ":8080"
	DefaultRefreshInterval = 6 * time.Hour
	DefaultServerRateLimit = 120
	DefaultShutdownTimeout = 10 * time.Second
	DefaultOTLPEndpoint    = "localhost:4317"

	// Playlist paths under DataDir, used when sources are set without them.
	DefaultPlaylistOutput    = "iptv/playlist.m3u"
	DefaultPlaylistSelection = "iptv/channels.txt"
)

// DefaultProviders is used when neither the file nor the environment names a provider.
func DefaultProviders() []Provider {
	return []Provider{{
		Name:     "jiotv",
		Source:   "https://www.tsepg.cf/jio.xml.gz",
		Output:   "jiotv.xml.gz",
		BaseTime: "utc",
	}}
}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Path returns the config file path, empty when running from env only.
func (l *Loader) Path() string { return l.configPath }

// Load loads configuration with precedence: ENV > File > Defaults.
// The file is parsed strictly, env is applied on top and the result is validated.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)

	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].Output == "" {
			cfg.Providers[i].Output = cfg.Providers[i].Name + ".xml.gz"
		}
	}

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if len(cfg.Playlist.Sources) > 0 {
		if cfg.Playlist.Output == "" {
			cfg.Playlist.Output = filepath.Join(cfg.DataDir, DefaultPlaylistOutput)
		}
		if cfg.Playlist.Selection == "" {
			cfg.Playlist.Selection = filepath.Join(cfg.DataDir, DefaultPlaylistSelection)
		}
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		DataDir:     DefaultDataDir,
		Timezone:    DefaultTimezone,
		Boundary:    epg.BoundInclusive.String(),
		Language:    epg.LanguageStrict.String(),
		Generator:   GeneratorConfig{Name: epg.DefaultGenerator.Name, URL: epg.DefaultGenerator.URL},
		Concurrency: DefaultConcurrency,
		Log:         LogConfig{Level: "info", Format: "json"},
		Fetch: FetchConfig{
			Timeout:   DefaultFetchTimeout,
			Retries:   DefaultFetchRetries,
			UserAgent: DefaultUserAgent,
			MaxBytes:  epg.MaxDocumentSize,
		},
		Server: ServerConfig{
			ListenAddr:      DefaultListenAddr,
			RefreshInterval: DefaultRefreshInterval,
			RateLimit:       DefaultServerRateLimit,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Endpoint:     DefaultOTLPEndpoint,
			SamplingRate: 1.0,
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	setString(&dst.DataDir, src.DataDir)
	setString(&dst.Timezone, src.Timezone)
	setString(&dst.Boundary, src.Boundary)
	setString(&dst.Language, src.Language)
	if src.Concurrency != nil {
		dst.Concurrency = *src.Concurrency
	}
	if g := src.Generator; g != nil {
		setString(&dst.Generator.Name, g.Name)
		setString(&dst.Generator.URL, g.URL)
	}
	if lg := src.Log; lg != nil {
		setString(&dst.Log.Level, lg.Level)
		setString(&dst.Log.Format, lg.Format)
	}
	if f := src.Fetch; f != nil {
		if err := setDuration(&dst.Fetch.Timeout, f.Timeout, "fetch.timeout"); err != nil {
			return err
		}
		if f.Retries != nil {
			dst.Fetch.Retries = *f.Retries
		}
		setString(&dst.Fetch.UserAgent, f.UserAgent)
		if f.RateLimit != nil {
			dst.Fetch.RateLimit = *f.RateLimit
		}
		if f.MaxBytes != nil {
			dst.Fetch.MaxBytes = *f.MaxBytes
		}
	}
	for _, p := range src.Providers {
		dst.Providers = append(dst.Providers, Provider{
			Name:          strings.TrimSpace(p.Name),
			Source:        strings.TrimSpace(p.Source),
			Output:        strings.TrimSpace(p.Output),
			BaseTime:      strings.TrimSpace(p.BaseTime),
			ChannelSuffix: p.ChannelSuffix,
			KeepXML:       p.KeepXML,
			Disabled:      p.Disabled,
		})
	}
	if pl := src.Playlist; pl != nil {
		if len(pl.Sources) > 0 {
			dst.Playlist.Sources = append([]string(nil), pl.Sources...)
		}
		setString(&dst.Playlist.Selection, pl.Selection)
		setString(&dst.Playlist.Output, pl.Output)
		if pl.FuzzyMax != nil {
			dst.Playlist.FuzzyMax = *pl.FuzzyMax
		}
	}
	if s := src.Server; s != nil {
		setString(&dst.Server.ListenAddr, s.ListenAddr)
		if err := setDuration(&dst.Server.RefreshInterval, s.RefreshInterval, "server.refreshInterval"); err != nil {
			return err
		}
		if err := setDuration(&dst.Server.ShutdownTimeout, s.ShutdownTimeout, "server.shutdownTimeout"); err != nil {
			return err
		}
		if s.RateLimit != nil {
			dst.Server.RateLimit = *s.RateLimit
		}
	}
	if m := src.Metrics; m != nil {
		setString(&dst.Metrics.Textfile, m.Textfile)
	}
	if t := src.Telemetry; t != nil {
		if t.Enabled != nil {
			dst.Telemetry.Enabled = *t.Enabled
		}
		setString(&dst.Telemetry.ExporterType, t.ExporterType)
		setString(&dst.Telemetry.Endpoint, t.Endpoint)
		if t.SamplingRate != nil {
			dst.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
	return nil
}

func mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)
	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = ParseString(EnvLogFormat, cfg.Log.Format)
	cfg.Timezone = ParseString(EnvTimezone, cfg.Timezone)
	cfg.Fetch.Timeout = ParseDuration(EnvFetchTimeout, cfg.Fetch.Timeout)
	cfg.Fetch.Retries = ParseInt(EnvFetchRetries, cfg.Fetch.Retries)
	cfg.Concurrency = ParseInt(EnvConcurrency, cfg.Concurrency)
	cfg.Server.ListenAddr = ParseString(EnvListenAddr, cfg.Server.ListenAddr)
	cfg.Server.RefreshInterval = ParseDuration(EnvRefreshInterval, cfg.Server.RefreshInterval)
	cfg.Metrics.Textfile = ParseString(EnvMetricsTextfile, cfg.Metrics.Textfile)
	cfg.Playlist.Sources = ParseList(EnvRemoteURLs, cfg.Playlist.Sources)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v = strings.TrimSpace(v); v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, v, err)
	}
	*dst = d
	return nil
}
