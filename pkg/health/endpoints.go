package health

import (
	"fmt"
	"net/http"
)

// Status is the health view rendered on diagnostic pages and probe bodies.
type Status struct {
	Alive       bool   `json:"alive"`
	Ready       bool   `json:"ready"`
	Uptime      string `json:"uptime"`
	SinceUpdate string `json:"since_update"`
}

// StatusOf summarizes the state with human-readable durations.
func StatusOf(s *State) Status {
	uptime := FormatInterval(s.TimeSinceBoot(), "%s", "less than a second")

	sinceUpdate := "Never updated"
	if d, ok := s.TimeSinceUpdate(); ok {
		sinceUpdate = FormatInterval(d, "%s ago", "within the last second")
	}

	return Status{
		Alive:       s.Alive(),
		Ready:       s.Ready(),
		Uptime:      uptime,
		SinceUpdate: sinceUpdate,
	}
}

// LivenessHandler returns the check_alive probe handler. It always answers
// definitively: 200 with an uptime body when alive, 503 otherwise. It never
// touches the rebuild pipeline.
func LivenessHandler(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := StatusOf(state)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if status.Alive {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "edgeline liveness check OK (%s)", status.Uptime)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "edgeline seems to have died (%s)", status.Uptime)
		}
	}
}

// ReadinessHandler returns the check_ready probe handler: 200 once at least
// one background refresh has completed, 503 before that, with the staleness
// interval in the body either way.
func ReadinessHandler(state *State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := StatusOf(state)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if status.Ready {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "edgeline readiness check OK (%s)", status.SinceUpdate)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "edgeline not ready (%s)", status.SinceUpdate)
		}
	}
}
