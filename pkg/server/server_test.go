package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edgeline/diagd/pkg/config"
)

const testMapping = `
kind: Mapping
name: quote
prefix: /quote/
service: quote:80
`

func boolPtr(b bool) *bool { return &b }

func testConfig(t *testing.T, configDir string) *config.Config {
	t.Helper()

	cfg := config.New()
	cfg.Diag.ConfigDir = configDir
	cfg.Diag.HealthChecks = boolPtr(false)
	cfg.Scout.Enabled = boolPtr(false)
	return cfg
}

func writeGeneration(t *testing.T, root string, id int, files map[string]string) {
	t.Helper()

	dir := filepath.Join(root, fmt.Sprintf("sync-%d", id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating generation dir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func testServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(cfg, "0.1.0-test", logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestCheckAlive(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 1, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	resp, body := get(t, ts.URL+"/edgeline/v0/check_alive")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("check_alive status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "edgeline liveness check OK") {
		t.Errorf("check_alive body = %q", body)
	}
}

func TestCheckReadyBeforeFirstUpdate(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 1, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	resp, body := get(t, ts.URL+"/edgeline/v0/check_ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("check_ready status = %d, want 503 before any update", resp.StatusCode)
	}
	if !strings.Contains(body, "Never updated") {
		t.Errorf("check_ready body = %q, want Never updated", body)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 3, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	resp, body := get(t, ts.URL+"/edgeline/v0/diag/?json=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status = %d, want 200\n%s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID header")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("overview body is not JSON: %v\n%s", err, body)
	}

	system, ok := result["system"].(map[string]any)
	if !ok {
		t.Fatalf("missing system in overview")
	}
	if system["version"] != "0.1.0-test" {
		t.Errorf("system.version = %v", system["version"])
	}

	status, ok := result["envoy_status"].(map[string]any)
	if !ok {
		t.Fatalf("missing envoy_status")
	}
	if status["alive"] != true {
		t.Errorf("envoy_status.alive = %v, want true with no admin poll yet", status["alive"])
	}
	if errs, ok := result["errors"].([]any); !ok || len(errs) != 0 {
		t.Errorf("errors = %v, want empty list", result["errors"])
	}
	if ns, ok := result["notices"].([]any); !ok || len(ns) != 0 {
		t.Errorf("notices = %v, want empty list", result["notices"])
	}
}

func TestSourceEndpoint(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 2, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	resp, body := get(t, ts.URL+"/edgeline/v0/diag/quote.yaml?json=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("source status = %d\n%s", resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("source body is not JSON: %v", err)
	}
	if result["source"] != "quote.yaml" {
		t.Errorf("source = %v", result["source"])
	}
}

func TestSourceEndpointUnknown(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 2, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	resp, _ := get(t, ts.URL+"/edgeline/v0/diag/nope.yaml?json=1")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown source status = %d, want 404", resp.StatusCode)
	}
}

func TestOverviewNoGeneration(t *testing.T) {
	ts := testServer(t, testConfig(t, t.TempDir()))

	resp, body := get(t, ts.URL+"/edgeline/v0/diag/?json=1")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 with no generations", resp.StatusCode)
	}
	if !strings.Contains(body, "no configuration generation found yet") {
		t.Errorf("body = %q", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 1, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	// Hit a diag endpoint first so request metrics exist.
	get(t, ts.URL+"/edgeline/v0/diag/?json=1")

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `edgeline_diagd_requests_total{endpoint="overview",status="200"} 1`) {
		t.Errorf("metrics missing overview request count:\n%s", body)
	}
	if !strings.Contains(body, "edgeline_diagd_snapshot_rebuild_duration_seconds_count 1") {
		t.Errorf("metrics missing rebuild duration")
	}
}

func TestMetricsDisabled(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 1, map[string]string{"quote.yaml": testMapping})

	cfg := testConfig(t, root)
	cfg.Telemetry.Metrics.Enabled = boolPtr(false)

	ts := testServer(t, cfg)

	resp, _ := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("disabled metrics status = %d, want 404", resp.StatusCode)
	}
}

func TestFaviconEndpoint(t *testing.T) {
	root := t.TempDir()
	writeGeneration(t, root, 1, map[string]string{"quote.yaml": testMapping})

	ts := testServer(t, testConfig(t, root))

	resp, body := get(t, ts.URL+"/edgeline/v0/favicon.ico")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("favicon status = %d", resp.StatusCode)
	}
	if len(body) == 0 {
		t.Errorf("favicon body is empty")
	}
}
