package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edgeline/diagd/pkg/config"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Namespace: "edgeline",
		Subsystem: "diagd",
		Path:      "/metrics",
	}
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading scrape body: %v", err)
	}
	return string(body)
}

func TestObserveRequest(t *testing.T) {
	c := NewCollector(testConfig())

	c.ObserveRequest("overview", "200", 25*time.Millisecond)
	c.ObserveRequest("overview", "200", 10*time.Millisecond)
	c.ObserveRequest("source", "404", 5*time.Millisecond)

	body := scrape(t, c)

	if !strings.Contains(body, `edgeline_diagd_requests_total{endpoint="overview",status="200"} 2`) {
		t.Errorf("missing overview request count in scrape:\n%s", body)
	}
	if !strings.Contains(body, `edgeline_diagd_requests_total{endpoint="source",status="404"} 1`) {
		t.Errorf("missing source request count in scrape:\n%s", body)
	}
	if !strings.Contains(body, `edgeline_diagd_request_duration_seconds_count{endpoint="overview"} 2`) {
		t.Errorf("missing request duration count in scrape:\n%s", body)
	}
}

func TestObserveRebuild(t *testing.T) {
	c := NewCollector(testConfig())

	c.ObserveRebuild(120 * time.Millisecond)

	body := scrape(t, c)
	if !strings.Contains(body, "edgeline_diagd_snapshot_rebuild_duration_seconds_count 1") {
		t.Errorf("missing rebuild duration in scrape:\n%s", body)
	}
}

func TestSetLatestGeneration(t *testing.T) {
	c := NewCollector(testConfig())

	c.SetLatestGeneration(4)

	body := scrape(t, c)
	if !strings.Contains(body, "edgeline_diagd_latest_generation 4") {
		t.Errorf("missing latest generation gauge in scrape:\n%s", body)
	}
}

func TestRuntimeCollectorsRegistered(t *testing.T) {
	c := NewCollector(testConfig())

	body := scrape(t, c)
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("Go runtime collector not registered")
	}
}
