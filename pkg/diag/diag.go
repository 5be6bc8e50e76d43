// Package diag implements the diagnostic views: the overview page and the
// per-source detail page. Each request rebuilds a fresh snapshot, reloads
// the notices store, reports scout telemetry, and merges everything into a
// single view model rendered as HTML or JSON.
package diag

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"edgeline/diagd/pkg/envoy"
	"edgeline/diagd/pkg/health"
	"edgeline/diagd/pkg/middleware"
	"edgeline/diagd/pkg/notices"
	"edgeline/diagd/pkg/scout"
	"edgeline/diagd/pkg/snapshot"
	"edgeline/diagd/pkg/telemetry/metrics"
)

// disableFeaturesEnv suppresses feature data in scout reports when set.
const disableFeaturesEnv = "EDGELINE_DISABLE_FEATURES"

// Options wires a Service's collaborators. Stats, Scout and Metrics may be
// nil: the corresponding view fields degrade gracefully.
type Options struct {
	Builder *snapshot.Builder
	Notices *notices.Store
	Health  *health.State
	Stats   *envoy.Stats
	Scout   *scout.Scout
	Metrics *metrics.Collector

	// Version is the daemon version shown in system info.
	Version string

	// Verbose dumps every view model at debug level before rendering.
	Verbose bool

	Logger *slog.Logger
}

// Service serves the diagnostic views.
type Service struct {
	builder *snapshot.Builder
	notices *notices.Store
	health  *health.State
	stats   *envoy.Stats
	scout   *scout.Scout
	metrics *metrics.Collector
	version string
	verbose bool
	logger  *slog.Logger
}

// NewService creates a Service from its options.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		builder: opts.Builder,
		notices: opts.Notices,
		health:  opts.Health,
		stats:   opts.Stats,
		scout:   opts.Scout,
		metrics: opts.Metrics,
		version: opts.Version,
		verbose: opts.Verbose,
		logger:  logger,
	}
}

// Overview handles GET /diag/: the top-level summary of the current
// generation.
func (s *Service) Overview(w http.ResponseWriter, r *http.Request) error {
	snap, err := s.buildSnapshot(r.Context())
	if err != nil {
		return err
	}

	s.notices.Reset()
	s.checkScout(r.Context(), "overview", snap)

	// Diagnostics output merges last: its keys win over the overview's.
	ddict := s.collectErrorsAndNotices(r, "overview", snap.Diag)

	result := s.baseView()
	for k, v := range snap.Diag.Overview(r) {
		result[k] = v
	}
	for k, v := range ddict {
		result[k] = v
	}
	result["notices"] = s.notices.All()

	return s.render(w, r, "overview.html", result)
}

// Source handles GET /diag/{source}: the detail view for one configuration
// source. An unknown source answers 404.
func (s *Service) Source(w http.ResponseWriter, r *http.Request) error {
	source := r.PathValue("source")

	snap, err := s.buildSnapshot(r.Context())
	if err != nil {
		return err
	}

	s.notices.Reset()
	s.checkScout(r.Context(), "detail: "+source, snap)

	detail, ok := snap.Diag.Lookup(r, source)
	if !ok {
		http.Error(w, "source not found", http.StatusNotFound)
		return nil
	}

	ddict := s.collectErrorsAndNotices(r, source, snap.Diag)

	result := s.baseView()
	if method := r.URL.Query().Get("method"); method != "" {
		result["method"] = method
	}
	if resource := r.URL.Query().Get("resource"); resource != "" {
		result["resource"] = resource
	}
	for k, v := range detail {
		result[k] = v
	}
	for k, v := range ddict {
		result[k] = v
	}
	result["notices"] = s.notices.All()

	return s.render(w, r, "diag.html", result)
}

// buildSnapshot runs the rebuild pipeline and records its duration and the
// generation it landed on.
func (s *Service) buildSnapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	start := time.Now()
	snap, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveRebuild(time.Since(start))
		s.metrics.SetLatestGeneration(snap.Generation.ID)
	}

	return snap, nil
}

// baseView assembles the view fields shared by every diagnostic page. The
// diagnostics output is merged on top afterwards, so its keys win.
func (s *Service) baseView() map[string]any {
	loginfo := map[string]string{}
	if s.stats != nil {
		loginfo = s.stats.LogInfo()
	}

	return map[string]any{
		"system":       s.systemInfo(),
		"envoy_status": health.StatusOf(s.health),
		"loginfo":      loginfo,
	}
}

// checkScout reports one telemetry action and folds any returned notices
// into the store. Reporting is best-effort: it never fails the view.
func (s *Service) checkScout(ctx context.Context, action string, snap *snapshot.Snapshot) {
	if s.scout == nil {
		return
	}

	uptime := s.health.TimeSinceBoot()
	args := map[string]any{
		"uptime":    int64(uptime.Seconds()),
		"hr_uptime": health.FormatDuration(uptime),
	}
	if os.Getenv(disableFeaturesEnv) == "" && snap.IR != nil {
		args["features"] = snap.IR.Features()
	}

	result := s.scout.Report(ctx, "diagd", action, args)
	s.notices.Extend(result.Notices)

	if data, err := json.Marshal(result.Data); err == nil {
		s.logger.Debug("scout result", "action", action, "result", string(data))
	}
}

func requestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}
