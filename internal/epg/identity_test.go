// SPDX-License-Identifier: MIT
package epg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelID(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
		want   string
		ok     bool
	}{
		{name: "Star Plus", suffix: SuffixDefault, want: "starplus.in", ok: true},
		{name: "  Astro Ria HD ", suffix: SuffixAstro, want: "astroriahd.my", ok: true},
		{name: "Colors\tTV", suffix: SuffixDefault, want: "colors\ttv.in", ok: true},
		{name: "", suffix: SuffixDefault, ok: false},
		{name: "   ", suffix: SuffixDefault, ok: false},
	}
	for _, tt := range tests {
		got, ok := ChannelID(tt.name, tt.suffix)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestSuffixForProvider(t *testing.T) {
	assert.Equal(t, ".my", SuffixForProvider("astro"))
	assert.Equal(t, ".in", SuffixForProvider("tataplay"))
	assert.Equal(t, ".in", SuffixForProvider(""))
}

func TestRenameChannels(t *testing.T) {
	tv := &TV{
		Channels: []Channel{
			{ID: "101", DisplayNames: []Text{{Value: "Star Plus"}, {Value: "STAR+"}}},
			{ID: "102"},
			{ID: "103", DisplayNames: []Text{{Value: "  "}}},
		},
		Programmes: []Programme{
			{Channel: "101"},
			{Channel: "102"},
			{Channel: "999"},
		},
	}

	report := RenameChannels(tv, SuffixDefault)

	assert.Equal(t, "starplus.in", tv.Channels[0].ID)
	assert.Equal(t, "102", tv.Channels[1].ID)
	assert.Equal(t, "103", tv.Channels[2].ID)
	assert.Equal(t, "starplus.in", tv.Programmes[0].Channel)
	assert.Equal(t, "102", tv.Programmes[1].Channel)
	assert.Equal(t, "999", tv.Programmes[2].Channel)

	assert.Equal(t, 1, report.Renamed)
	assert.Equal(t, 2, report.Unnamed)
	assert.Equal(t, 1, report.Rewritten)
	assert.Equal(t, 2, report.Unmatched)
	assert.Empty(t, report.Collisions)
}

func TestRenameChannels_SkipsLeadingBlankName(t *testing.T) {
	tv := &TV{
		Channels:   []Channel{{ID: "7", DisplayNames: []Text{{Value: " "}, {Value: "Foo News"}, {Value: "Bar"}}}},
		Programmes: []Programme{{Channel: "7"}},
	}

	report := RenameChannels(tv, SuffixDefault)
	assert.Equal(t, "foonews.in", tv.Channels[0].ID)
	assert.Equal(t, "foonews.in", tv.Programmes[0].Channel)
	assert.Equal(t, 1, report.Renamed)
	assert.Zero(t, report.Unnamed)

	// Reduction keeps the same name the id was derived from.
	ReduceChannel(&tv.Channels[0])
	assert.Equal(t, []Text{{Value: "Foo News"}}, tv.Channels[0].DisplayNames)
}

func TestRenameChannels_Collisions(t *testing.T) {
	tv := &TV{
		Channels: []Channel{
			{ID: "a", DisplayNames: []Text{{Value: "Zee TV"}}},
			{ID: "b", DisplayNames: []Text{{Value: "ZEE TV"}}},
			{ID: "c", DisplayNames: []Text{{Value: "Sony"}}},
			{ID: "c", DisplayNames: []Text{{Value: "Sony Max"}}},
		},
		Programmes: []Programme{{Channel: "a"}, {Channel: "b"}, {Channel: "c"}},
	}

	report := RenameChannels(tv, SuffixDefault)

	assert.Equal(t, []Collision{
		{Kind: CollisionSharedID, ID: "zeetv.in", Previous: "a", Current: "b"},
		{Kind: CollisionRemapped, ID: "c", Previous: "sony.in", Current: "sonymax.in"},
	}, report.Collisions)

	// Last write wins for a reused upstream id.
	assert.Equal(t, "sonymax.in", tv.Programmes[2].Channel)
	assert.Equal(t, "zeetv.in", tv.Programmes[0].Channel)
	assert.Equal(t, "zeetv.in", tv.Programmes[1].Channel)
}
