package diag

import (
	"net/http"
	"sort"

	"edgeline/diagd/pkg/notices"
	"edgeline/diagd/pkg/snapshot"
)

// ErrorPair is one flattened error: the source key (empty for global
// errors) and the message. It marshals as a two-element array.
type ErrorPair [2]string

// collectErrorsAndNotices turns the raw diagnostics mapping into view form:
// the per-source error groups become an ordered flat list, and per-source
// diagnostic notices are posted into the notices store so they render with
// everything else. A loglevel query parameter is applied here too, before
// the view is assembled, so a failure can prepend its warning.
func (s *Service) collectErrorsAndNotices(r *http.Request, what string, diag snapshot.Diagnostics) map[string]any {
	reqid := requestID(r.Context())

	if level := r.URL.Query().Get("loglevel"); level != "" && s.stats != nil {
		s.logger.Info("requesting log level change", "request_id", reqid, "level", level)
		if err := s.stats.UpdateLogLevels(r.Context(), level); err != nil {
			s.logger.Warn("log level change failed", "request_id", reqid, "error", err)
			s.notices.Prepend(notices.Notice{
				Level:   notices.LevelWarning,
				Message: "Could not update log level!",
			})
		}
	}

	ddict := diag.AsDict()

	if groups, ok := ddict["errors"].(map[string][]snapshot.ErrorDetail); ok {
		ddict["errors"] = flattenErrors(groups)
	}

	if groups, ok := ddict["notices"].(map[string][]string); ok {
		keys := make([]string, 0, len(groups))
		for key := range groups {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			for _, msg := range groups[key] {
				s.notices.Post(notices.Notice{
					Level:   notices.LevelNotice,
					Message: key + ": " + msg,
				})
			}
		}
		delete(ddict, "notices")
	}

	s.logger.Debug("collected diagnostics", "request_id", reqid, "view", what)
	return ddict
}

// flattenErrors orders the grouped errors into (key, message) pairs. The
// global group key becomes the empty string, which sorts ahead of every
// named source.
func flattenErrors(groups map[string][]snapshot.ErrorDetail) []ErrorPair {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		if key == snapshot.GlobalKey {
			key = ""
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	flat := []ErrorPair{}
	for _, key := range keys {
		group := key
		if group == "" {
			group = snapshot.GlobalKey
		}
		for _, detail := range groups[group] {
			flat = append(flat, ErrorPair{key, detail.Error})
		}
	}
	return flat
}
