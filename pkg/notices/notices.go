// Package notices implements the process-wide store of human-facing
// advisory messages shown on every diagnostic page. Notices come from three
// sources: a local JSON file reloaded per request, scout telemetry reports,
// and the diagnostics result itself.
package notices

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Notice levels.
const (
	LevelNotice  = "NOTICE"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// Notice is a single advisory message with a severity level.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Store accumulates notices for rendering. It is shared across request
// goroutines, so every operation takes the store lock; All returns a copy
// so a concurrent Reset cannot tear a reader's view.
type Store struct {
	mu        sync.Mutex
	localPath string
	notices   []Notice
}

// NewStore creates a notices store backed by an optional local notices file.
// An empty path means no local file is consulted.
func NewStore(localPath string) *Store {
	return &Store{localPath: localPath}
}

// Reset reloads the store from the local notices file, replacing any
// notices currently held. A missing or unset file yields an empty store.
// A file that cannot be read or parsed yields exactly one ERROR notice
// describing the bad content; corruption never propagates as an error.
func (s *Store) Reset() {
	local := []Notice{}

	if s.localPath != "" {
		data, err := os.ReadFile(s.localPath)
		if err == nil {
			if jsonErr := json.Unmarshal(data, &local); jsonErr != nil {
				local = []Notice{{
					Level:   LevelError,
					Message: fmt.Sprintf("bad local notices: %s", string(data)),
				}}
			}
		} else if !os.IsNotExist(err) {
			local = []Notice{{
				Level:   LevelError,
				Message: fmt.Sprintf("bad local notices: %v", err),
			}}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = local
}

// Post appends a notice.
func (s *Store) Post(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

// Prepend inserts a notice before all notices already present. Used to give
// log-level-change failures priority visibility.
func (s *Store) Prepend(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append([]Notice{n}, s.notices...)
}

// Extend posts each notice in order.
func (s *Store) Extend(ns []Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, ns...)
}

// All returns a copy of the current notices, never nil.
func (s *Store) All() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}
