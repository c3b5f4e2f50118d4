package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestServer(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetCacheSize(4)

	s, err := Listen("127.0.0.1:0", reg, nil)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer s.Shutdown(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "todo_cache_size 4") {
		t.Errorf("expected cache size in scrape, got:\n%s", body)
	}
}
