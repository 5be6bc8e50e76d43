// Package health tracks process liveness and configuration-update
// readiness for orchestration probes. Liveness is true from boot; readiness
// becomes true after the first successful background refresh and is
// published by a single writer through an atomic pointer swap, so probe
// reads never take a lock and never block on the rebuild pipeline.
package health

import (
	"sync/atomic"
	"time"
)

// State holds the two health axes. The boot time is fixed at construction;
// the last-update timestamp is written only by the periodic updater.
type State struct {
	bootTime   time.Time
	lastUpdate atomic.Pointer[time.Time]
}

// NewState creates a State booted now.
func NewState() *State {
	return NewStateAt(time.Now())
}

// NewStateAt creates a State with an explicit boot time.
func NewStateAt(boot time.Time) *State {
	return &State{bootTime: boot}
}

// Alive reports process liveness. Once the process is up this is always
// true; there is no liveness-degrading condition modeled.
func (s *State) Alive() bool {
	return !s.bootTime.IsZero()
}

// Ready reports whether at least one background refresh has completed.
func (s *State) Ready() bool {
	return s.lastUpdate.Load() != nil
}

// MarkUpdated records a successful background refresh at t.
func (s *State) MarkUpdated(t time.Time) {
	s.lastUpdate.Store(&t)
}

// BootTime returns the process boot time.
func (s *State) BootTime() time.Time {
	return s.bootTime
}

// TimeSinceBoot returns the process uptime.
func (s *State) TimeSinceBoot() time.Duration {
	return time.Since(s.bootTime)
}

// TimeSinceUpdate returns the time since the last successful refresh. The
// second return is false if no refresh has happened yet.
func (s *State) TimeSinceUpdate() (time.Duration, bool) {
	last := s.lastUpdate.Load()
	if last == nil {
		return 0, false
	}
	return time.Since(*last), true
}
