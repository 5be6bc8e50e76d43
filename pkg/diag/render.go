package diag

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/favicon.ico
var faviconBytes []byte

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// render writes the view model as indented JSON when the json query
// parameter carries a value (filter selects a single top-level key), and as
// the named HTML page otherwise. The HTML is buffered so a template error can
// still become a clean failure response.
func (s *Service) render(w http.ResponseWriter, r *http.Request, page string, result map[string]any) error {
	if s.verbose {
		if dump, err := json.Marshal(result); err == nil {
			s.logger.Debug("view model", "page", page, "result", string(dump))
		}
	}

	// A bare ?json= with no value still renders HTML.
	query := r.URL.Query()
	if query.Get("json") != "" {
		var payload any = result
		if filter := query.Get("filter"); filter != "" {
			payload = result[filter]
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encoding %s view: %w", page, err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, page, result); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

// Favicon serves the embedded site icon.
func Favicon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/x-icon")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write(faviconBytes)
	}
}
