// SPDX-License-Identifier: MIT
package epg

import (
	"cmp"
	"slices"
	"strings"
)

// SortChannels orders channels by lowercased display name, falling back to
// the lowercased id. Equal keys keep their input order.
func SortChannels(channels []Channel) {
	type entry struct {
		key string
		ch  Channel
	}
	entries := make([]entry, len(channels))
	for i := range channels {
		entries[i] = entry{key: channelSortKey(channels[i]), ch: channels[i]}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return strings.Compare(a.key, b.key)
	})
	for i := range entries {
		channels[i] = entries[i].ch
	}
}

func channelSortKey(ch Channel) string {
	if len(ch.DisplayNames) > 0 && ch.DisplayNames[0].Value != "" {
		return strings.ToLower(ch.DisplayNames[0].Value)
	}
	return strings.ToLower(ch.ID)
}

// SortProgrammes orders programmes by (lowercased channel, start). Start is
// compared as a string; after normalization every offset is identical, so
// string order equals chronological order.
func SortProgrammes(progs []Programme) {
	type entry struct {
		channel string
		p       Programme
	}
	entries := make([]entry, len(progs))
	for i := range progs {
		entries[i] = entry{channel: strings.ToLower(progs[i].Channel), p: progs[i]}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Or(
			strings.Compare(a.channel, b.channel),
			strings.Compare(a.p.Start, b.p.Start),
		)
	})
	for i := range entries {
		progs[i] = entries[i].p
	}
}
