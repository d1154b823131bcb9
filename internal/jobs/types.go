// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/source"
)

// Fetcher retrieves the raw bytes of a source location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Deps holds everything a provider run needs.
type Deps struct {
	Config  config.AppConfig
	Fetcher Fetcher
	// Clock defaults to time.Now. It is read once per provider run.
	Clock func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

// Stage names the step of a provider run that failed.
type Stage string

const (
	StageConfig    Stage = "config"
	StageFetch     Stage = "fetch"
	StageDecode    Stage = "decode"
	StageNormalize Stage = "normalize"
	StageEncode    Stage = "encode"
	StageWrite     Stage = "write"
)

// ProviderError reports a failed provider run. Other providers are unaffected.
type ProviderError struct {
	Provider string
	Source   string
	Stage    Stage
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s) %s: %v", e.Provider, source.Host(e.Source), e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Stats are the counters of one successful provider run.
type Stats struct {
	Channels             int   `json:"channels"`
	ProgrammesIn         int   `json:"programmes_in"`
	ProgrammesOut        int   `json:"programmes_out"`
	DroppedInvalid       int   `json:"dropped_invalid"`
	DroppedOutsideWindow int   `json:"dropped_outside_window"`
	Collisions           int   `json:"collisions"`
	Bytes                int   `json:"bytes"`
	DurationMS           int64 `json:"duration_ms"`
}

// Result describes the artifacts of a successful provider run.
type Result struct {
	Provider    string
	Output      string // absolute path of the .xml.gz file
	XMLOutput   string // uncompressed copy, empty unless KeepXML
	GeneratedAt time.Time
	Stats       Stats
}
