// SPDX-License-Identifier: MIT
package epg

import "strings"

// Channel id suffixes by provider.
const (
	SuffixDefault = ".in"
	SuffixAstro   = ".my"
)

// SuffixForProvider returns the channel id suffix for a provider token.
func SuffixForProvider(provider string) string {
	if provider == "astro" {
		return SuffixAstro
	}
	return SuffixDefault
}

// ChannelID derives the canonical channel id from a display name.
// It returns false when the name is empty or whitespace only.
func ChannelID(displayName, suffix string) (string, bool) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return "", false
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "") + suffix, true
}

// CollisionKind classifies a channel rename collision.
type CollisionKind string

const (
	// CollisionSharedID: two different upstream ids normalize to the same id.
	CollisionSharedID CollisionKind = "shared_id"
	// CollisionRemapped: one upstream id appears twice and maps to different ids.
	CollisionRemapped CollisionKind = "remapped"
)

// Collision records a rename that overwrote or shared an earlier mapping.
// The later channel wins in both cases.
type Collision struct {
	Kind     CollisionKind
	ID       string // new id for shared_id, upstream id for remapped
	Previous string
	Current  string
}

// RenameReport summarizes RenameChannels.
type RenameReport struct {
	Mapping    map[string]string // upstream id -> canonical id
	Renamed    int
	Unnamed    int // channels without a usable display name, id kept
	Rewritten  int // programme references rewritten
	Unmatched  int // programme references left untouched
	Collisions []Collision
}

// RenameChannels rewrites channel ids from their first non-blank display name and
// updates programme channel references accordingly.
func RenameChannels(tv *TV, suffix string) RenameReport {
	report := RenameReport{Mapping: make(map[string]string, len(tv.Channels))}
	owners := make(map[string]string, len(tv.Channels))

	for i := range tv.Channels {
		ch := &tv.Channels[i]
		name, _ := primaryName(ch.DisplayNames)
		newID, ok := ChannelID(name.Value, suffix)
		if !ok {
			report.Unnamed++
			continue
		}

		oldID := ch.ID
		if prev, seen := report.Mapping[oldID]; seen && prev != newID {
			report.Collisions = append(report.Collisions, Collision{
				Kind: CollisionRemapped, ID: oldID, Previous: prev, Current: newID,
			})
		}
		if owner, taken := owners[newID]; taken && owner != oldID {
			report.Collisions = append(report.Collisions, Collision{
				Kind: CollisionSharedID, ID: newID, Previous: owner, Current: oldID,
			})
		}
		owners[newID] = oldID
		report.Mapping[oldID] = newID
		ch.ID = newID
		report.Renamed++
	}

	for i := range tv.Programmes {
		p := &tv.Programmes[i]
		if newID, ok := report.Mapping[p.Channel]; ok {
			p.Channel = newID
			report.Rewritten++
		} else {
			report.Unmatched++
		}
	}
	return report
}
