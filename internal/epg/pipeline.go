// SPDX-License-Identifier: MIT
package epg

import (
	"errors"
	"fmt"
	"time"
)

// Options configures one pipeline invocation. There is no package level
// state; every provider run passes its own Options.
type Options struct {
	// Location is the fixed target zone for every rendered timestamp.
	Location *time.Location
	// Suffix is appended to derived channel ids (see SuffixForProvider).
	Suffix string
	// BaseTime must be set; it has no default.
	BaseTime  BaseTime
	Bound     BoundaryPolicy
	Language  LanguagePolicy
	Generator Generator
	// Now is captured once by the caller and used for both the retention
	// window and the root date stamp.
	Now time.Time
}

// Report summarizes one Normalize call.
type Report struct {
	ChannelsIn   int
	ProgrammesIn int
	Rename       RenameReport
	Filter       FilterStats
	Window       Window
}

// Normalize runs the full pipeline on tv in place:
// channel identity, timestamps, reduction, retention, ordering and stamping.
func Normalize(tv *TV, opts Options) (Report, error) {
	if tv == nil {
		return Report{}, errors.New("nil document")
	}
	if opts.Now.IsZero() {
		return Report{}, errors.New("pipeline clock not captured")
	}
	tn, err := NewTimeNormalizer(opts.Location, opts.BaseTime)
	if err != nil {
		return Report{}, fmt.Errorf("time normalizer: %w", err)
	}

	report := Report{
		ChannelsIn:   len(tv.Channels),
		ProgrammesIn: len(tv.Programmes),
		Window:       NewWindow(opts.Now, opts.Location, opts.Bound),
	}

	report.Rename = RenameChannels(tv, opts.Suffix)
	NormalizeTimes(tv, tn)
	Reduce(tv, opts.Language)
	tv.Programmes, report.Filter = FilterProgrammes(tv.Programmes, report.Window, tn)
	SortChannels(tv.Channels)
	SortProgrammes(tv.Programmes)
	Stamp(tv, tn.Format(opts.Now), opts.Generator)

	return report, nil
}
