package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SplitConfigChecker resolves secrets for a specific generation directory.
// The sync process splits secret material out of the main configuration and
// writes it under secrets/ inside each generation; the checker reads it back
// on demand during IR construction.
type SplitConfigChecker struct {
	logger *slog.Logger
	dir    string
}

// NewSplitConfigChecker creates a checker rooted at a generation directory.
func NewSplitConfigChecker(logger *slog.Logger, dir string) *SplitConfigChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitConfigChecker{logger: logger, dir: dir}
}

// Dir returns the generation directory the checker reads from.
func (c *SplitConfigChecker) Dir() string {
	return c.dir
}

// ReadSecret returns the secret material for name in namespace. The
// namespace may be empty outside Kubernetes mode.
func (c *SplitConfigChecker) ReadSecret(name, namespace string) ([]byte, error) {
	if strings.ContainsAny(name, "/\\") || strings.ContainsAny(namespace, "/\\") {
		return nil, fmt.Errorf("invalid secret reference %q/%q", namespace, name)
	}

	parts := []string{c.dir, "secrets"}
	if namespace != "" {
		parts = append(parts, namespace)
	}
	parts = append(parts, name)
	path := filepath.Join(parts...)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret %q: %w", name, err)
	}

	c.logger.Debug("resolved split-config secret", "name", name, "namespace", namespace)
	return data, nil
}
