// SPDX-License-Identifier: MIT
package epg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	ist := mustIST(t)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, ist)
	w := NewWindow(now, ist, BoundInclusive)
	assert.True(t, w.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, ist)))
	assert.True(t, w.End.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, ist)))

	// 20:00 UTC on Dec 31 is already Jan 1 in the target zone.
	w = NewWindow(time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC), ist, BoundInclusive)
	assert.True(t, w.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, ist)))
}

func TestFilterProgrammes(t *testing.T) {
	ist := mustIST(t)
	n, err := NewTimeNormalizer(ist, BaseTimeLocal)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, ist)

	tests := []struct {
		name      string
		p         Programme
		inclusive bool
		exclusive bool
	}{
		{
			name: "ends before window",
			p:    Programme{Channel: "c", Start: "20231231225959 +0530", Stop: "20231231235959 +0530"},
		},
		{
			name:      "spans window start",
			p:         Programme{Channel: "c", Start: "20231231230000 +0530", Stop: "20240101010000 +0530"},
			inclusive: true, exclusive: true,
		},
		{
			name:      "stops exactly at window start",
			p:         Programme{Channel: "c", Start: "20231231230000 +0530", Stop: "20240101000000 +0530"},
			inclusive: true, exclusive: true,
		},
		{
			name:      "starts exactly at window end",
			p:         Programme{Channel: "c", Start: "20240103000000 +0530", Stop: "20240103010000 +0530"},
			inclusive: true,
		},
		{
			name: "starts after window end",
			p:    Programme{Channel: "c", Start: "20240103000001 +0530", Stop: "20240103010000 +0530"},
		},
		{
			name:      "inside window",
			p:         Programme{Channel: "c", Start: "20240102120000 +0530", Stop: "20240102130000 +0530"},
			inclusive: true, exclusive: true,
		},
		{
			name: "missing channel",
			p:    Programme{Start: "20240102120000 +0530", Stop: "20240102130000 +0530"},
		},
		{
			name: "missing stop",
			p:    Programme{Channel: "c", Start: "20240102120000 +0530"},
		},
		{
			name: "malformed start",
			p:    Programme{Channel: "c", Start: "2024010212", Stop: "20240102130000 +0530"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for bound, want := range map[BoundaryPolicy]bool{BoundInclusive: tt.inclusive, BoundExclusive: tt.exclusive} {
				kept, stats := FilterProgrammes([]Programme{tt.p}, NewWindow(now, ist, bound), n)
				assert.Equal(t, want, len(kept) == 1, bound.String())
				assert.Equal(t, len(kept), stats.Kept)
			}
		})
	}
}

func TestFilterProgrammes_Stats(t *testing.T) {
	ist := mustIST(t)
	n, err := NewTimeNormalizer(ist, BaseTimeLocal)
	require.NoError(t, err)
	w := NewWindow(time.Date(2024, 1, 1, 10, 0, 0, 0, ist), ist, BoundInclusive)

	progs := []Programme{
		{Channel: "a", Start: "20240101100000 +0530", Stop: "20240101110000 +0530"},
		{Channel: "a", Start: "20231201100000 +0530", Stop: "20231201110000 +0530"},
		{Channel: "a", Start: "bad", Stop: "20240101110000 +0530"},
		{Channel: "b", Start: "20240101110000 +0530", Stop: "20240101120000 +0530"},
	}
	kept, stats := FilterProgrammes(progs, w, n)
	assert.Equal(t, FilterStats{Kept: 2, Invalid: 1, OutsideWindow: 1}, stats)
	assert.Equal(t, "a", kept[0].Channel)
	assert.Equal(t, "b", kept[1].Channel)
}

func TestParseBoundaryPolicy(t *testing.T) {
	b, err := ParseBoundaryPolicy("")
	require.NoError(t, err)
	assert.Equal(t, BoundInclusive, b)

	b, err = ParseBoundaryPolicy("EXCLUSIVE")
	require.NoError(t, err)
	assert.Equal(t, BoundExclusive, b)

	_, err = ParseBoundaryPolicy("half-open")
	assert.Error(t, err)
}
