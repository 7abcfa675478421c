package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounterAndReuse(t *testing.T) {
	r := New()
	c := r.Counter("scrape_listings_total", "Listings processed")
	c.Inc()
	c.Add(4)
	if c.Value() != 5 {
		t.Fatalf("value = %d, want 5", c.Value())
	}
	if r.Counter("scrape_listings_total", "") != c {
		t.Fatal("same name returned a different counter")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("queue_depth", "")
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 9 {
		t.Fatalf("value = %d, want 9", g.Value())
	}
}

func TestHistogramBuckets(t *testing.T) {
	r := New()
	h := r.Histogram("req_seconds", "", []float64{0.25, 1})
	h.Observe(0.25)
	h.Observe(0.5)
	h.Observe(3)

	_, counts, sum, count := h.snapshot()
	if count != 3 {
		t.Fatalf("count = %d", count)
	}
	if counts[0] != 1 || counts[1] != 1 {
		t.Errorf("bucket counts = %v", counts)
	}
	if sum != 3.75 {
		t.Errorf("sum = %v", sum)
	}
}

func TestWithLabels(t *testing.T) {
	name := WithLabels("ingest_total", "status", "failed")
	if name != `ingest_total{status="failed"}` {
		t.Fatalf("name = %q", name)
	}
	// Odd pairs are ignored rather than producing a malformed name.
	if got := WithLabels("x", "only-key"); got != "x" {
		t.Fatalf("odd pairs: %q", got)
	}
}

func TestRender_LabeledSeriesShareOneHeader(t *testing.T) {
	r := New()
	r.Counter(WithLabels("ingest_total", "status", "ok"), "Ingest outcomes").Add(2)
	r.Counter(WithLabels("ingest_total", "status", "failed"), "").Inc()

	out := r.Render()
	if strings.Count(out, "# TYPE ingest_total counter") != 1 {
		t.Errorf("expected one TYPE line:\n%s", out)
	}
	if !strings.Contains(out, `ingest_total{status="ok"} 2`) ||
		!strings.Contains(out, `ingest_total{status="failed"} 1`) {
		t.Errorf("labeled series missing:\n%s", out)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("hits_total", "").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hits_total 1") {
		t.Errorf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestHistogramSince(t *testing.T) {
	r := New()
	h := r.Histogram("op_seconds", "", nil)
	h.Since(time.Now().Add(-time.Millisecond))
	_, _, _, count := h.snapshot()
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
}

func TestCollectRuntime(t *testing.T) {
	r := New()
	r.CollectRuntime("app", time.Hour)

	if r.Gauge("app_goroutines", "").Value() == 0 {
		t.Error("goroutine gauge not sampled")
	}
	if r.Gauge("app_heap_alloc_bytes", "").Value() == 0 {
		t.Error("heap gauge not sampled")
	}
}
