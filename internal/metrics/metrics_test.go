package metrics

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracescope/tracescope/internal/schedule"
	"github.com/tracescope/tracescope/internal/stream"
	"github.com/tracescope/tracescope/internal/timeseries"
)

// gatherValue reads a metric from the default registry by name. Gauges and
// counters only; returns the first metric of the family.
func gatherValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestRegister_Idempotent(t *testing.T) {
	// MustRegister panics on duplicates; the sync.Once must absorb repeats.
	Register(true)
	Register(true)
	Register(false)
}

func TestSetInfo(t *testing.T) {
	Register(true)
	SetInfo("v1.2.3", "normal", "mem")

	var buf bytes.Buffer
	if err := DumpText(&buf); err != nil {
		t.Fatalf("DumpText: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "tracescope_info") {
		t.Error("dump missing tracescope_info")
	}
	if !strings.Contains(out, `policy="normal"`) {
		t.Error("dump missing policy label")
	}
}

func TestCollector_Update(t *testing.T) {
	Register(true)
	c := NewCollector(true)

	streams := []stream.Stats{
		{
			SignalID: "cont.0", Mode: "continuous",
			SourceLen: 1000, Committed: 100, Capacity: 256,
			Chunks: 4, Retractions: 2, Grows: 1,
		},
		{
			SignalID: "enum.0", Mode: "enum",
			SourceLen: 500, Committed: 25, Capacity: 256,
			Chunks: 2, Failed: true,
		},
	}
	frame := schedule.FrameStats{
		Frames:    10,
		Available: 14 * time.Millisecond,
		LastUsed:  3 * time.Millisecond,
		CostP50:   time.Millisecond,
		CostP90:   2 * time.Millisecond,
	}
	upload := timeseries.UploadStats{TotalBytes: 5000, BytesPerSec10s: 1250}

	chunksBefore := gatherValue(t, "tracescope_chunks_uploaded_total")
	bytesBefore := gatherValue(t, "tracescope_upload_bytes_total")

	c.Update(streams, frame, upload)

	if got := gatherValue(t, "tracescope_signals_active"); got != 2 {
		t.Errorf("signals_active = %v, want 2", got)
	}
	if got := gatherValue(t, "tracescope_source_samples"); got != 1500 {
		t.Errorf("source_samples = %v, want 1500", got)
	}
	if got := gatherValue(t, "tracescope_points_committed"); got != 125 {
		t.Errorf("points_committed = %v, want 125", got)
	}
	if got := gatherValue(t, "tracescope_compression_ratio"); got != 12 {
		t.Errorf("compression_ratio = %v, want 12", got)
	}
	if got := gatherValue(t, "tracescope_streams_failed"); got != 1 {
		t.Errorf("streams_failed = %v, want 1", got)
	}
	if got := gatherValue(t, "tracescope_chunks_uploaded_total"); got != chunksBefore+6 {
		t.Errorf("chunks_uploaded_total rose by %v, want 6", got-chunksBefore)
	}
	if got := gatherValue(t, "tracescope_upload_bytes_total"); got != bytesBefore+5000 {
		t.Errorf("upload_bytes_total rose by %v, want 5000", got-bytesBefore)
	}
	if got := gatherValue(t, "tracescope_upload_bytes_per_second"); got != 1250 {
		t.Errorf("upload_bytes_per_second = %v, want 1250", got)
	}
	if got := gatherValue(t, "tracescope_pump_cost_p90_seconds"); got != 0.002 {
		t.Errorf("pump_cost_p90_seconds = %v, want 0.002", got)
	}
}

func TestCollector_CountersOnlyAdvanceOnDelta(t *testing.T) {
	Register(true)
	c := NewCollector(false)

	streams := []stream.Stats{{SignalID: "s", Mode: "continuous", Chunks: 5}}
	frame := schedule.FrameStats{Frames: 1}
	upload := timeseries.UploadStats{TotalBytes: 100}

	c.Update(streams, frame, upload)
	after1 := gatherValue(t, "tracescope_chunks_uploaded_total")

	// Same cumulative snapshot again: no double counting.
	c.Update(streams, frame, upload)
	after2 := gatherValue(t, "tracescope_chunks_uploaded_total")

	if after1 != after2 {
		t.Errorf("counter moved on an unchanged snapshot: %v -> %v", after1, after2)
	}
}

func TestCounterDelta(t *testing.T) {
	testCases := []struct {
		name     string
		current  uint64
		prev     uint64
		want     uint64
		wantPrev uint64
	}{
		{"first_sample", 10, 0, 10, 10},
		{"advance", 15, 10, 5, 15},
		{"unchanged", 15, 15, 0, 15},
		{"reset_clamps_to_zero", 3, 15, 0, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prev := tc.prev
			if got := counterDelta(tc.current, &prev); got != tc.want {
				t.Errorf("counterDelta = %d, want %d", got, tc.want)
			}
			if prev != tc.wantPrev {
				t.Errorf("prev = %d, want %d", prev, tc.wantPrev)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	healthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "ok" {
		t.Errorf("body = %q, want ok", got)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	Register(true)
	SetInfo("test", "normal", "mem")

	ts := httptest.NewServer(promhttp.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(buf.String(), "tracescope_frames_total") {
		t.Error("scrape output missing tracescope_frames_total")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerAddr(t *testing.T) {
	s := NewServer("127.0.0.1:0", discardLogger())
	if s.Addr() != "127.0.0.1:0" {
		t.Errorf("Addr = %q", s.Addr())
	}
}
