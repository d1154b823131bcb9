package epg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func channelIDs(chs []Channel) []string {
	ids := make([]string, len(chs))
	for i, ch := range chs {
		ids[i] = ch.ID
	}
	return ids
}

func TestSortChannels(t *testing.T) {
	chs := []Channel{
		{ID: "zee.in", DisplayNames: []Text{{Value: "Zee"}}},
		{ID: "b-first", DisplayNames: []Text{{Value: "beta"}}},
		{ID: "ALPHA.in"},
		{ID: "b-second", DisplayNames: []Text{{Value: "Beta"}}},
		{ID: "colors.in", DisplayNames: []Text{{Value: ""}}},
	}
	SortChannels(chs)
	assert.Equal(t, []string{"ALPHA.in", "b-first", "b-second", "colors.in", "zee.in"}, channelIDs(chs))
}

func TestSortChannels_Stable(t *testing.T) {
	chs := []Channel{
		{ID: "first", DisplayNames: []Text{{Value: "Same"}}},
		{ID: "second", DisplayNames: []Text{{Value: "Same"}}},
		{ID: "third", DisplayNames: []Text{{Value: "same"}}},
	}
	SortChannels(chs)
	assert.Equal(t, []string{"first", "second", "third"}, channelIDs(chs))
}

func TestSortProgrammes(t *testing.T) {
	progs := []Programme{
		{Channel: "b.in", Start: "20240101100000 +0530", Titles: []Text{{Value: "b10"}}},
		{Channel: "A.in", Start: "20240101110000 +0530", Titles: []Text{{Value: "a11"}}},
		{Channel: "a.in", Start: "20240101090000 +0530", Titles: []Text{{Value: "a09"}}},
		{Channel: "b.in", Start: "20240101080000 +0530", Titles: []Text{{Value: "b08"}}},
		{Channel: "a.in", Start: "20240101110000 +0530", Titles: []Text{{Value: "a11-dup"}}},
	}
	SortProgrammes(progs)

	got := make([]string, len(progs))
	for i, p := range progs {
		got[i] = p.Titles[0].Value
	}
	assert.Equal(t, []string{"a09", "a11", "a11-dup", "b08", "b10"}, got)
}
