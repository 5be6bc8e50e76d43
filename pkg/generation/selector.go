// Package generation locates configuration generations on disk. A sync
// process writes each new generation into its own sync-N directory under a
// common root; the highest N is the current configuration.
package generation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Prefix is the directory-name prefix identifying a generation directory.
const Prefix = "sync-"

// ErrNoGeneration is returned when the root directory contains no sync-N
// subdirectory at all. Callers treat this as "no configuration yet" rather
// than a generic failure.
var ErrNoGeneration = errors.New("no configuration generation found")

// Generation identifies one configuration generation on disk.
type Generation struct {
	// ID is the numeric suffix of the directory name. Ordering between
	// generations is purely numeric.
	ID int

	// Dir is the absolute or root-relative path of the generation directory.
	Dir string
}

// Latest scans the immediate subdirectories of root and returns the
// generation with the highest numeric suffix. Subdirectories whose suffix
// does not parse as an integer are ignored, not failed on. If no
// subdirectory matches, Latest returns an error wrapping ErrNoGeneration.
func Latest(root string) (Generation, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Generation{}, fmt.Errorf("reading generation root %q: %w", root, err)
	}

	best := -1
	found := false

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, ok := ParseID(entry.Name())
		if !ok {
			continue
		}
		if !found || id > best {
			best = id
			found = true
		}
	}

	if !found {
		return Generation{}, fmt.Errorf("%w under %q", ErrNoGeneration, root)
	}

	return Generation{
		ID:  best,
		Dir: filepath.Join(root, fmt.Sprintf("%s%d", Prefix, best)),
	}, nil
}

// ParseID extracts the numeric generation ID from a directory name.
// It reports false for names without the sync- prefix or with a
// non-numeric suffix.
func ParseID(name string) (int, bool) {
	if !strings.HasPrefix(name, Prefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(name, Prefix))
	if err != nil {
		return 0, false
	}
	return id, true
}
