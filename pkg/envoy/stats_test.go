package envoy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newAdminStub(t *testing.T, serverState int64, failStats bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if failStats {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "server.live: 1\n")
		fmt.Fprintf(w, "server.state: %d\n", serverState)
		fmt.Fprintf(w, "http.ingress.downstream_rq_total: 42\n")
		fmt.Fprintf(w, "cluster.quote.upstream_rq_time: P50(nan,0)\n")
	})

	mux.HandleFunc("/logging", func(w http.ResponseWriter, r *http.Request) {
		level := "info"
		if r.Method == http.MethodPost {
			if q := r.URL.Query().Get("level"); q != "" {
				level = q
			}
		}
		fmt.Fprintf(w, "active loggers:\n")
		fmt.Fprintf(w, "  admin: %s\n", level)
		fmt.Fprintf(w, "  router: %s\n", level)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpdate(t *testing.T) {
	srv := newAdminStub(t, 0, false)
	stats := New(srv.URL, time.Second, nil)

	if stats.IsAlive() || stats.IsReady() {
		t.Error("fresh stats should be neither alive nor ready")
	}

	if err := stats.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !stats.IsAlive() {
		t.Error("IsAlive() = false after successful update")
	}
	if !stats.IsReady() {
		t.Error("IsReady() = false with server.state 0")
	}
	if v, ok := stats.Counter("http.ingress.downstream_rq_total"); !ok || v != 42 {
		t.Errorf("Counter(downstream_rq_total) = (%d, %v), want (42, true)", v, ok)
	}
	if _, ok := stats.Counter("cluster.quote.upstream_rq_time"); ok {
		t.Error("non-integer stat should be skipped")
	}
	if lv := stats.LogInfo()["admin"]; lv != "info" {
		t.Errorf("LogInfo()[admin] = %q, want info", lv)
	}
}

func TestUpdateDrainingProxyNotReady(t *testing.T) {
	srv := newAdminStub(t, 2, false)
	stats := New(srv.URL, time.Second, nil)

	if err := stats.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !stats.IsAlive() {
		t.Error("IsAlive() = false for a reachable draining proxy")
	}
	if stats.IsReady() {
		t.Error("IsReady() = true for server.state != 0")
	}
}

func TestUpdateFailureMarksDead(t *testing.T) {
	srv := newAdminStub(t, 0, false)
	stats := New(srv.URL, time.Second, nil)
	if err := stats.Update(context.Background()); err != nil {
		t.Fatal(err)
	}

	srv.Close()
	if err := stats.Update(context.Background()); err == nil {
		t.Fatal("Update() against closed admin port: expected error")
	}
	if stats.IsAlive() || stats.IsReady() {
		t.Error("failed update must clear alive/ready")
	}
}

func TestUpdateLogLevels(t *testing.T) {
	srv := newAdminStub(t, 0, false)
	stats := New(srv.URL, time.Second, nil)

	if err := stats.UpdateLogLevels(context.Background(), "debug"); err != nil {
		t.Fatalf("UpdateLogLevels() error = %v", err)
	}
	if lv := stats.LogInfo()["router"]; lv != "debug" {
		t.Errorf("LogInfo()[router] = %q, want debug", lv)
	}
}

func TestUpdateLogLevelsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such level", http.StatusBadRequest)
	}))
	defer srv.Close()

	stats := New(srv.URL, time.Second, nil)
	if err := stats.UpdateLogLevels(context.Background(), "shouting"); err == nil {
		t.Error("UpdateLogLevels() with rejecting admin: expected error")
	}
}
