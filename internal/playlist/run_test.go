package playlist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senvora/epg/internal/config"
	"github.com/senvora/epg/internal/source"
)

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	body, ok := s[location]
	if !ok {
		return nil, errors.New("unreachable")
	}
	return []byte(body), nil
}

func writeSelection(t *testing.T, dir string, names string) string {
	t.Helper()
	path := filepath.Join(dir, "channels.txt")
	require.NoError(t, os.WriteFile(path, []byte(names), 0o600))
	return path
}

func TestRun_MergesIntoExistingPlaylist(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "iptv", "playlist.m3u")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0o750))
	require.NoError(t, os.WriteFile(output, []byte(
		"#EXTM3U\n#EXTINF:-1 tvg-id=\"starplus.in\",Star Plus\nhttp://old/star\n"), 0o600))

	cfg := config.PlaylistConfig{
		Sources:   []string{"https://one.example/list.m3u", "https://down.example/list.m3u", "https://two.example/list.m3u"},
		Selection: writeSelection(t, dir, "Star Plus\nColors TV\n"),
		Output:    output,
	}
	fetcher := stubFetcher{
		"https://one.example/list.m3u": "#EXTM3U\n#EXTINF:-1,Star Plus\nhttp://one/star\n#EXTINF:-1,Colors TV\nhttp://one/colors\n#EXTINF:-1,Other\nhttp://one/other\n",
		"https://two.example/list.m3u": "#EXTM3U\n#EXTINF:-1,Colors TV\nhttp://two/colors\n",
	}

	rep, err := Run(context.Background(), cfg, fetcher)
	require.NoError(t, err)
	assert.Equal(t, &Report{
		Output: output, Sources: 3, FailedSources: 1, Selected: 2, Matched: 2, Updated: 1, Added: 1, Entries: 2,
	}, rep)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		"#EXTM3U\n"+
			"#EXTINF:-1 tvg-id=\"starplus.in\",Star Plus\nhttp://one/star\n"+
			"\n"+
			"#EXTINF:-1,Colors TV\nhttp://two/colors\n",
		string(data))
}

func TestRun_MissingLocalStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	cfg := config.PlaylistConfig{
		Sources:   []string{"https://one.example/list.m3u"},
		Selection: writeSelection(t, dir, "Zee TV\n"),
		Output:    filepath.Join(dir, "playlist.m3u"),
	}
	fetcher := stubFetcher{"https://one.example/list.m3u": "#EXTINF:-1,Zee TV\nhttp://z\n"}

	rep, err := Run(context.Background(), cfg, fetcher)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Added)

	data, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n#EXTINF:-1,Zee TV\nhttp://z\n", string(data))
}

func TestRun_AllSourcesFailed(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "playlist.m3u")
	require.NoError(t, os.WriteFile(output, []byte("#EXTM3U\nprevious\n"), 0o600))

	cfg := config.PlaylistConfig{
		Sources:   []string{"https://down.example/a.m3u"},
		Selection: writeSelection(t, dir, "Zee TV\n"),
		Output:    output,
	}
	_, err := Run(context.Background(), cfg, stubFetcher{})
	assert.ErrorIs(t, err, ErrNoSources)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\nprevious\n", string(data))
}

func TestRun_MissingSelection(t *testing.T) {
	dir := t.TempDir()
	cfg := config.PlaylistConfig{
		Sources:   []string{"https://one.example/a.m3u"},
		Selection: filepath.Join(dir, "nope.txt"),
		Output:    filepath.Join(dir, "playlist.m3u"),
	}
	_, err := Run(context.Background(), cfg, stubFetcher{})
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, cfg.Output)
}

func TestRun_WithHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:-1,Sony SAB\nhttp://s/sab\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.PlaylistConfig{
		Sources:   []string{srv.URL + "/list.m3u?token=x"},
		Selection: writeSelection(t, dir, "Sony SAB\n"),
		Output:    filepath.Join(dir, "playlist.m3u"),
	}
	rep, err := Run(context.Background(), cfg, source.New(source.Options{Timeout: time.Second}))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Entries)
}
