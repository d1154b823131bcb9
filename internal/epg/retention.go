// SPDX-License-Identifier: MIT
package epg

import (
	"fmt"
	"strings"
	"time"
)

// RetentionSpan is the length of the retention window: today and tomorrow.
const RetentionSpan = 48 * time.Hour

// BoundaryPolicy selects whether a programme starting exactly at the window
// end is kept.
type BoundaryPolicy int

const (
	BoundInclusive BoundaryPolicy = iota
	BoundExclusive
)

// ParseBoundaryPolicy parses "inclusive" (default) or "exclusive".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive":
		return BoundInclusive, nil
	case "exclusive":
		return BoundExclusive, nil
	default:
		return BoundInclusive, fmt.Errorf("unknown boundary policy %q", s)
	}
}

func (b BoundaryPolicy) String() string {
	if b == BoundExclusive {
		return "exclusive"
	}
	return "inclusive"
}

// Window is the retention interval [Start, End] anchored at local midnight.
type Window struct {
	Start time.Time
	End   time.Time
	Bound BoundaryPolicy
}

// NewWindow anchors the window at midnight of now in loc.
func NewWindow(now time.Time, loc *time.Location, bound BoundaryPolicy) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.Add(RetentionSpan), Bound: bound}
}

// Overlaps reports whether [start, stop] intersects the window.
func (w Window) Overlaps(start, stop time.Time) bool {
	if stop.Before(w.Start) {
		return false
	}
	if w.Bound == BoundExclusive {
		return start.Before(w.End)
	}
	return !start.After(w.End)
}

// FilterStats counts the outcome of FilterProgrammes.
type FilterStats struct {
	Kept          int
	Invalid       int // missing channel, or unparseable start/stop
	OutsideWindow int
}

// FilterProgrammes keeps programmes whose interval overlaps w. Programmes
// with a missing channel or unparseable timestamps are dropped.
func FilterProgrammes(progs []Programme, w Window, n *TimeNormalizer) ([]Programme, FilterStats) {
	var stats FilterStats
	kept := make([]Programme, 0, len(progs))
	for _, p := range progs {
		if p.Channel == "" {
			stats.Invalid++
			continue
		}
		start, ok := n.ParseInstant(p.Start)
		if !ok {
			stats.Invalid++
			continue
		}
		stop, ok := n.ParseInstant(p.Stop)
		if !ok {
			stats.Invalid++
			continue
		}
		if !w.Overlaps(start, stop) {
			stats.OutsideWindow++
			continue
		}
		kept = append(kept, p)
	}
	stats.Kept = len(kept)
	return kept, stats
}
