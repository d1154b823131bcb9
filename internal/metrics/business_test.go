package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/senvora/epg/internal/epg"
)

func TestRecordProviderRun(t *testing.T) {
	before := testutil.ToFloat64(providerRunsTotal.WithLabelValues("test-run", "success"))
	RecordProviderRun("test-run", true, 2*time.Second)
	RecordProviderRun("test-run", false, time.Second)

	if got := testutil.ToFloat64(providerRunsTotal.WithLabelValues("test-run", "success")); got != before+1 {
		t.Errorf("success runs = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(providerRunsTotal.WithLabelValues("test-run", "failure")); got != 1 {
		t.Errorf("failure runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(lastSuccess.WithLabelValues("test-run")); got <= 0 {
		t.Errorf("last success not set")
	}
}

func TestRecordPipeline(t *testing.T) {
	rep := epg.Report{
		Filter: epg.FilterStats{Kept: 40, Invalid: 2, OutsideWindow: 8},
		Rename: epg.RenameReport{Collisions: []epg.Collision{
			{Kind: epg.CollisionSharedID}, {Kind: epg.CollisionSharedID}, {Kind: epg.CollisionRemapped},
		}},
	}
	RecordPipeline("test-pipeline", 12, rep)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"channels", testutil.ToFloat64(channelsWritten.WithLabelValues("test-pipeline")), 12},
		{"programmes", testutil.ToFloat64(programmesWritten.WithLabelValues("test-pipeline")), 40},
		{"outside window", testutil.ToFloat64(programmesDropped.WithLabelValues("test-pipeline", DropOutsideWindow)), 8},
		{"shared id", testutil.ToFloat64(channelCollisions.WithLabelValues("test-pipeline", "shared_id")), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if got := testutil.ToFloat64(programmesDropped.WithLabelValues("test-pipeline", DropInvalid)); got != 2 {
		t.Errorf("invalid drops = %v, want 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordFetch("http", "success")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "epg_fetch_attempts_total") {
		t.Errorf("metric not exposed")
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordPlaylist(3, 1)
	path := filepath.Join(t.TempDir(), "epg.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "epg_playlist_entries 3") {
		t.Errorf("textfile missing playlist gauge:\n%s", data)
	}
}
