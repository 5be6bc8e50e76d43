package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshFunc performs one background refresh of live proxy statistics.
type RefreshFunc func(ctx context.Context) error

// Updater drives periodic refreshes. It is the sole writer of the State's
// last-update timestamp: a refresh that fails leaves the timestamp alone,
// so readiness only ever reflects completed refreshes.
type Updater struct {
	state    *State
	refresh  RefreshFunc
	interval time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewUpdater creates an updater refreshing every interval (default 5s).
func NewUpdater(state *State, refresh RefreshFunc, interval time.Duration, logger *slog.Logger) *Updater {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		state:    state,
		refresh:  refresh,
		interval: interval,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start begins periodic refreshes. The first refresh runs on the first
// tick, not immediately; until it completes the process reports not ready.
func (u *Updater) Start() error {
	spec := fmt.Sprintf("@every %s", u.interval)
	if _, err := u.cron.AddFunc(spec, u.runOnce); err != nil {
		return fmt.Errorf("scheduling periodic update (%s): %w", spec, err)
	}

	u.cron.Start()
	u.logger.Info("starting periodic updates", "interval", u.interval.String())
	return nil
}

// Stop stops the schedule and waits for a running refresh to finish.
func (u *Updater) Stop() {
	ctx := u.cron.Stop()
	<-ctx.Done()
	u.logger.Info("periodic updates stopped")
}

func (u *Updater) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), u.interval)
	defer cancel()

	if err := u.refresh(ctx); err != nil {
		u.logger.Warn("periodic update failed", "error", err)
		return
	}

	u.state.MarkUpdated(time.Now())
	u.logger.Debug("periodic update complete")
}
