package epg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustIST(t *testing.T) *time.Location {
	t.Helper()
	loc, err := ParseOffset("+05:30")
	require.NoError(t, err)
	return loc
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		secs    int
		wantErr bool
	}{
		{in: "+05:30", secs: 19800},
		{in: "+0530", secs: 19800},
		{in: "-03:00", secs: -10800},
		{in: "+00:00", secs: 0},
		{in: "IST", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseOffset(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, secs := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
			assert.Equal(t, tt.secs, secs)
		})
	}
}

func TestParseBaseTime(t *testing.T) {
	b, err := ParseBaseTime("UTC")
	require.NoError(t, err)
	assert.Equal(t, BaseTimeUTC, b)

	b, err = ParseBaseTime("local")
	require.NoError(t, err)
	assert.Equal(t, BaseTimeLocal, b)

	_, err = ParseBaseTime("")
	assert.ErrorIs(t, err, ErrBaseTimeUnset)

	_, err = ParseBaseTime("gmt")
	assert.Error(t, err)
}

func TestNewTimeNormalizer_RequiresBase(t *testing.T) {
	_, err := NewTimeNormalizer(mustIST(t), BaseTimeUnset)
	assert.ErrorIs(t, err, ErrBaseTimeUnset)

	_, err = NewTimeNormalizer(nil, BaseTimeUTC)
	assert.Error(t, err)
}

func TestTimeNormalizer_RoundTrip(t *testing.T) {
	utc, err := NewTimeNormalizer(mustIST(t), BaseTimeUTC)
	require.NoError(t, err)
	local, err := NewTimeNormalizer(mustIST(t), BaseTimeLocal)
	require.NoError(t, err)

	tests := []struct {
		name string
		n    *TimeNormalizer
		in   string
		want string
	}{
		{name: "bare utc base", n: utc, in: "20240101120000", want: "20240101173000 +0530"},
		{name: "explicit utc offset", n: utc, in: "20240101120000 +0000", want: "20240101173000 +0530"},
		{name: "explicit offset ignores base", n: local, in: "20240101120000 +0000", want: "20240101173000 +0530"},
		{name: "bare local base", n: local, in: "20240101120000", want: "20240101120000 +0530"},
		{name: "already canonical", n: utc, in: "20240101173000 +0530", want: "20240101173000 +0530"},
		{name: "negative offset", n: utc, in: "20231231220000 -0200", want: "20240101053000 +0530"},
		{name: "crosses midnight", n: utc, in: "20240101200000", want: "20240102013000 +0530"},
		{name: "too short", n: utc, in: "202401011200", want: "202401011200"},
		{name: "garbage", n: utc, in: "not-a-time", want: "not-a-time"},
		{name: "empty", n: utc, in: "", want: ""},
		{name: "offset without sign", n: utc, in: "20240101120000 0000", want: "20240101120000 0000"},
		{name: "invalid month", n: utc, in: "20241301120000", want: "20241301120000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.Normalize(tt.in))
		})
	}
}

func TestTimeNormalizer_ParseInstant(t *testing.T) {
	n, err := NewTimeNormalizer(mustIST(t), BaseTimeUTC)
	require.NoError(t, err)

	got, ok := n.ParseInstant("20240101120000")
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	_, ok = n.ParseInstant("2024-01-01T12:00:00Z")
	assert.False(t, ok)
}

func TestTimeNormalizer_Idempotent(t *testing.T) {
	n, err := NewTimeNormalizer(mustIST(t), BaseTimeUTC)
	require.NoError(t, err)
	for _, in := range []string{"20240101120000", "20240315081500 +0100", "20241231235959 -0500"} {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), in)
	}
}
