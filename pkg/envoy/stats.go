// Package envoy talks to the Envoy admin interface. It implements the
// live-stats collaborator: periodic refreshes of proxy statistics for the
// readiness signal, the current logging levels for the diagnostic views,
// and live log-level changes.
package envoy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Stats polls the Envoy admin port. Update is called by the periodic
// health updater; the read methods are called from request goroutines, so
// all cached state sits behind an RWMutex.
type Stats struct {
	adminURL string
	client   *http.Client
	logger   *slog.Logger

	mu       sync.RWMutex
	alive    bool
	ready    bool
	counters map[string]int64
	loginfo  map[string]string
}

// New creates a Stats collaborator for the admin interface at adminURL.
func New(adminURL string, timeout time.Duration, logger *slog.Logger) *Stats {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stats{
		adminURL: strings.TrimSuffix(adminURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		counters: map[string]int64{},
		loginfo:  map[string]string{},
	}
}

// Update fetches /stats and /logging from the admin port and refreshes the
// cached view. An unreachable or unhealthy admin port marks the proxy not
// alive and returns an error; the caller decides what that means for
// readiness.
func (s *Stats) Update(ctx context.Context) error {
	counters, err := s.fetchStats(ctx)
	if err != nil {
		s.mu.Lock()
		s.alive = false
		s.ready = false
		s.mu.Unlock()
		return err
	}

	// Log levels are best-effort: stats alone are enough to be ready.
	loginfo, logErr := s.fetchLogInfo(ctx)
	if logErr != nil {
		s.logger.Debug("could not fetch envoy log levels", "error", logErr)
	}

	ready := true
	if state, ok := counters["server.state"]; ok {
		// server.state 0 is LIVE; anything else is draining or initializing.
		ready = state == 0
	}

	s.mu.Lock()
	s.alive = true
	s.ready = ready
	s.counters = counters
	if loginfo != nil {
		s.loginfo = loginfo
	}
	s.mu.Unlock()

	return nil
}

// IsAlive reports whether the last update reached a live admin port.
func (s *Stats) IsAlive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive
}

// IsReady reports whether the proxy reported a serving state on the last
// update.
func (s *Stats) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Counter returns a named counter from the last update.
func (s *Stats) Counter(name string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.counters[name]
	return v, ok
}

// LogInfo returns the proxy's current logger levels as of the last update
// or log-level change.
func (s *Stats) LogInfo() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.loginfo))
	for k, v := range s.loginfo {
		out[k] = v
	}
	return out
}

// UpdateLogLevels asks the proxy to switch every logger to level. The
// cached loginfo is refreshed from the response on success.
func (s *Stats) UpdateLogLevels(ctx context.Context, level string) error {
	endpoint := fmt.Sprintf("%s/logging?level=%s", s.adminURL, url.QueryEscape(level))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building log-level request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("changing envoy log level: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("changing envoy log level: admin returned %s", resp.Status)
	}

	loginfo := parseLogLevels(resp.Body)

	s.mu.Lock()
	if len(loginfo) > 0 {
		s.loginfo = loginfo
	} else {
		s.loginfo = map[string]string{"all": level}
	}
	s.mu.Unlock()

	s.logger.Info("envoy log level changed", "level", level)
	return nil
}

func (s *Stats) fetchStats(ctx context.Context) (map[string]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.adminURL+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("building stats request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching envoy stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching envoy stats: admin returned %s", resp.Status)
	}

	counters := map[string]int64{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		name, value, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			// Histograms and string-valued gauges are not interesting here.
			continue
		}
		counters[strings.TrimSpace(name)] = n
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading envoy stats: %w", err)
	}

	return counters, nil
}

func (s *Stats) fetchLogInfo(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.adminURL+"/logging", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("admin returned %s", resp.Status)
	}

	return parseLogLevels(resp.Body), nil
}

// parseLogLevels reads the "name: level" lines of the admin /logging
// output, skipping headers and blank lines.
func parseLogLevels(r io.Reader) map[string]string {
	levels := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, level, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		level = strings.TrimSpace(level)
		if name == "" || level == "" || strings.Contains(name, " ") {
			continue
		}
		levels[name] = level
	}
	return levels
}
