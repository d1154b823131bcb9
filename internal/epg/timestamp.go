// SPDX-License-Identifier: MIT
package epg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	xmltvLayout       = "20060102150405"
	xmltvOffsetLayout = "20060102150405 -0700"
)

// BaseTime states how a bare 14-digit timestamp (no offset) is interpreted.
// Providers disagree, so there is deliberately no usable zero value.
type BaseTime int

const (
	BaseTimeUnset BaseTime = iota
	// BaseTimeLocal treats bare timestamps as civil time in the target zone.
	BaseTimeLocal
	// BaseTimeUTC treats bare timestamps as UTC.
	BaseTimeUTC
)

// ErrBaseTimeUnset is returned when a provider does not state its base time.
var ErrBaseTimeUnset = errors.New("base time interpretation not set (want \"local\" or \"utc\")")

// ParseBaseTime parses "local" or "utc".
func ParseBaseTime(s string) (BaseTime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return BaseTimeLocal, nil
	case "utc":
		return BaseTimeUTC, nil
	case "":
		return BaseTimeUnset, ErrBaseTimeUnset
	default:
		return BaseTimeUnset, fmt.Errorf("unknown base time %q (want \"local\" or \"utc\")", s)
	}
}

func (b BaseTime) String() string {
	switch b {
	case BaseTimeLocal:
		return "local"
	case BaseTimeUTC:
		return "utc"
	default:
		return "unset"
	}
}

// ParseOffset parses a fixed UTC offset such as "+05:30" or "+0530" into a location.
func ParseOffset(s string) (*time.Location, error) {
	raw := strings.TrimSpace(s)
	t, err := time.Parse("-07:00", raw)
	if err != nil {
		t, err = time.Parse("-0700", raw)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", s, err)
	}
	_, secs := t.Zone()
	return time.FixedZone(t.Format("-0700"), secs), nil
}

// TimeNormalizer converts provider timestamps into the canonical
// "YYYYMMDDHHMMSS ±HHMM" form of a single target zone.
type TimeNormalizer struct {
	loc    *time.Location
	offset string
	base   BaseTime
}

// NewTimeNormalizer returns a normalizer for the target location.
func NewTimeNormalizer(loc *time.Location, base BaseTime) (*TimeNormalizer, error) {
	if loc == nil {
		return nil, errors.New("target location is nil")
	}
	if base != BaseTimeLocal && base != BaseTimeUTC {
		return nil, ErrBaseTimeUnset
	}
	return &TimeNormalizer{
		loc:    loc,
		offset: time.Date(2000, 1, 1, 0, 0, 0, 0, loc).Format("-0700"),
		base:   base,
	}, nil
}

// Location returns the target location.
func (n *TimeNormalizer) Location() *time.Location { return n.loc }

// ParseInstant parses a bare 14-digit timestamp or one followed by a
// space and a numeric offset. Anything else yields false.
func (n *TimeNormalizer) ParseInstant(raw string) (time.Time, bool) {
	switch {
	case len(raw) == 14 && isDigits(raw):
		zone := n.loc
		if n.base == BaseTimeUTC {
			zone = time.UTC
		}
		t, err := time.ParseInLocation(xmltvLayout, raw, zone)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case len(raw) == 20 && isDigits(raw[:14]) && raw[14] == ' ' &&
		(raw[15] == '+' || raw[15] == '-') && isDigits(raw[16:]):
		t, err := time.Parse(xmltvOffsetLayout, raw)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// Normalize renders raw in the target zone. Unparseable input is returned unchanged.
func (n *TimeNormalizer) Normalize(raw string) string {
	t, ok := n.ParseInstant(raw)
	if !ok {
		return raw
	}
	return n.Format(t)
}

// Format renders t in the target zone with the zone's fixed offset literal.
func (n *TimeNormalizer) Format(t time.Time) string {
	return t.In(n.loc).Format(xmltvLayout) + " " + n.offset
}

// NormalizeTimes rewrites every programme's start and stop attribute.
func NormalizeTimes(tv *TV, n *TimeNormalizer) {
	for i := range tv.Programmes {
		p := &tv.Programmes[i]
		p.Start = n.Normalize(p.Start)
		p.Stop = n.Normalize(p.Stop)
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
