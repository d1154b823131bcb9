package playlist

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senvora/epg/internal/m3u"
)

func TestLoadSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.txt")
	require.NoError(t, os.WriteFile(path, []byte("Star Plus\n\n  Colors TV  \r\n\t\nSony SAB"), 0o600))

	names, err := LoadSelection(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Star Plus", "Colors TV", "Sony SAB"}, names)

	_, err = LoadSelection(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSelect_LaterSourceWins(t *testing.T) {
	first := m3u.ParseBlocks("#EXTINF:-1,A\nhttp://one/a\n#EXTINF:-1,B\nhttp://one/b\n#EXTINF:-1,Skip\nhttp://one/s\n")
	second := m3u.ParseBlocks("#EXTINF:-1,B\nhttp://two/b\n#EXTINF:-1,C\nhttp://two/c\n")

	dst := m3u.NewBlocks()
	assert.Equal(t, 2, Select(dst, first, []string{"A", "B", "C"}, 0))
	assert.Equal(t, 2, Select(dst, second, []string{"A", "B", "C"}, 0))

	assert.Equal(t, []string{"A", "B", "C"}, dst.Names())
	b, _ := dst.Get("B")
	assert.Equal(t, []string{"#EXTINF:-1,B", "http://two/b"}, b.Lines)
	_, ok := dst.Get("Skip")
	assert.False(t, ok)
}

func TestSelect_Fuzzy(t *testing.T) {
	src := m3u.ParseBlocks("#EXTINF:-1,Star Plus HD\nhttp://s/hd\n#EXTINF:-1,Zee TV\nhttp://s/zee\n")

	dst := m3u.NewBlocks()
	assert.Equal(t, 0, Select(dst, src, []string{"star plus"}, 0))
	assert.Equal(t, 1, Select(dst, src, []string{"star plus"}, 3))

	blk, ok := dst.Get("star plus")
	require.True(t, ok)
	assert.Equal(t, "http://s/hd", blk.Body()[0])
	assert.Equal(t, "#EXTINF:-1,Star Plus HD", blk.Extinf())
}

func TestMerge(t *testing.T) {
	local := m3u.ParseBlocks(`#EXTM3U
#EXTINF:-1 tvg-id="starplus.in" tvg-logo="local.png",Star Plus
http://old/starplus

#EXTINF:-1,Local Only
http://local/only
`)
	remote := m3u.ParseBlocks(`#EXTINF:-1 tvg-logo="remote.png",Star Plus
#EXTVLCOPT:http-referrer=http://r
http://new/starplus
#EXTINF:-1,Brand New
http://new/brand
`)

	st := Merge(local, remote)
	assert.Equal(t, MergeStats{Updated: 1, Added: 1}, st)

	want := []m3u.Block{
		{Name: "Star Plus", Lines: []string{
			`#EXTINF:-1 tvg-id="starplus.in" tvg-logo="local.png",Star Plus`,
			"#EXTVLCOPT:http-referrer=http://r",
			"http://new/starplus",
		}},
		{Name: "Local Only", Lines: []string{"#EXTINF:-1,Local Only", "http://local/only"}},
		{Name: "Brand New", Lines: []string{"#EXTINF:-1,Brand New", "http://new/brand"}},
	}
	if diff := cmp.Diff(want, local.List()); diff != "" {
		t.Errorf("merged playlist mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteM3U(t *testing.T) {
	blocks := m3u.ParseBlocks("#EXTINF:-1,A\nhttp://a\n#EXTINF:-1,B\n#EXTVLCOPT:x\nhttp://b\n")

	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, blocks))
	assert.Equal(t, "#EXTM3U\n#EXTINF:-1,A\nhttp://a\n\n#EXTINF:-1,B\n#EXTVLCOPT:x\nhttp://b\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteM3U(&buf, m3u.NewBlocks()))
	assert.Equal(t, "#EXTM3U\n", buf.String())
}

func TestWriteM3U_RoundTrip(t *testing.T) {
	in := "#EXTM3U\n#EXTINF:-1,A\nhttp://a\n\n#EXTINF:-1,B\nhttp://b\n"
	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, m3u.ParseBlocks(in)))
	assert.Equal(t, in, buf.String())
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "ab", 2},
		{"kitten", "sitting", 3},
		{"star plus", "star plus hd", 3},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestFindBest(t *testing.T) {
	candidates := []string{"Sony SAB", "Sony Max", "Star Gold"}

	got, ok := findBest("sony  sab ", candidates, 0)
	assert.True(t, ok)
	assert.Equal(t, "Sony SAB", got)

	got, ok = findBest("Sony Mix", candidates, 1)
	assert.True(t, ok)
	assert.Equal(t, "Sony Max", got)

	_, ok = findBest("Discovery", candidates, 2)
	assert.False(t, ok)
}
