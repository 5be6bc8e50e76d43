// Package scout implements the telemetry-report collaborator. Reports
// carry uptime and feature-usage data for one diagnostic action; any
// notices that come back are surfaced on the diagnostic pages. Reports are
// also recorded in a local SQLite archive so operators can inspect what
// was reported without leaving the box.
package scout

import (
	"context"
	"log/slog"
	"os"
	"time"

	"edgeline/diagd/pkg/notices"
)

// zeroInstallID is used when no cluster or scout id is configured.
const zeroInstallID = "00000000-0000-0000-0000-000000000000"

// Result is the outcome of one report.
type Result struct {
	// Data is the report payload echoed back, including the install id
	// and report mode.
	Data map[string]any

	// Notices are advisory messages produced by reporting, already
	// separated from Data.
	Notices []notices.Notice
}

// Scout produces telemetry reports.
type Scout struct {
	enabled   bool
	installID string
	archive   *Archive
	logger    *slog.Logger
}

// New creates a Scout. The archive may be nil to skip local recording.
// The install id comes from EDGELINE_CLUSTER_ID, then EDGELINE_SCOUT_ID,
// then a zero UUID.
func New(enabled bool, archive *Archive, logger *slog.Logger) *Scout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scout{
		enabled:   enabled,
		installID: InstallID(),
		archive:   archive,
		logger:    logger,
	}
}

// InstallID resolves the cluster identity used in reports.
func InstallID() string {
	if id := os.Getenv("EDGELINE_CLUSTER_ID"); id != "" {
		return id
	}
	if id := os.Getenv("EDGELINE_SCOUT_ID"); id != "" {
		return id
	}
	return zeroInstallID
}

// Report submits one telemetry report for the given mode and action and
// returns its result. Reporting never fails the request that triggered it:
// archive problems are logged and swallowed.
func (s *Scout) Report(ctx context.Context, mode, action string, args map[string]any) Result {
	data := map[string]any{
		"install_id": s.installID,
		"mode":       mode,
		"action":     action,
	}
	for k, v := range args {
		data[k] = v
	}

	result := Result{Data: data}
	if !s.enabled {
		result.Data["scout"] = "disabled"
		return result
	}
	result.Data["scout"] = "local"

	if s.archive != nil {
		if err := s.archive.Record(ctx, time.Now(), mode, action, args, result.Notices); err != nil {
			s.logger.Warn("could not archive scout report", "error", err)
		}
	}

	return result
}
