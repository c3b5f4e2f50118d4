package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveOp("create", 20*time.Millisecond, true)
	pr.ObserveOp("delete", 5*time.Millisecond, false)
	pr.IncCacheHit()
	pr.SetCacheSize(3)
	pr.IncErrorShown("notFound")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(mfs))
	}
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetCacheSize(7)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "todo_cache_size 7") {
		t.Fatalf("expected cache size in scrape output, got:\n%s", rec.Body.String())
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveOp("x", time.Second, true)
	pr.IncCacheHit()
	pr.SetCacheSize(1)
	pr.IncErrorShown("x")
}
