package diag

import (
	"os"
	"time"

	"edgeline/diagd/pkg/health"
	"edgeline/diagd/pkg/scout"
)

// SystemInfo identifies the daemon on every diagnostic page.
type SystemInfo struct {
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	ClusterID string `json:"cluster_id"`
	BootTime  string `json:"boot_time"`
	HRUptime  string `json:"hr_uptime"`
}

func (s *Service) systemInfo() SystemInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return SystemInfo{
		Version:   s.version,
		Hostname:  hostname,
		ClusterID: scout.InstallID(),
		BootTime:  s.health.BootTime().Format(time.RFC1123),
		HRUptime:  health.FormatDuration(s.health.TimeSinceBoot()),
	}
}
