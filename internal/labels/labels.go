// Package labels builds the ordered class-name set from a labeled
// directory tree.
//
// The training pipeline derives class indices from a lexicographic sort of
// the training directory's subdirectory names. Serving must reproduce that
// exact order: output vector position i always refers to Set[i], and any
// divergence (added, removed or renamed class directories) silently corrupts
// every prediction without raising an error.
package labels

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrEmpty is returned when the dataset root contains no class directories.
var ErrEmpty = errors.New("labels: no class directories found")

// Set is the ordered class-name sequence, index-aligned with the model's
// output vector. Immutable once built.
type Set []string

// Build enumerates the immediate children of datasetRoot, keeps directory
// entries only (hidden entries skipped), and returns their names sorted
// lexicographically ascending.
func Build(datasetRoot string) (Set, error) {
	entries, err := os.ReadDir(datasetRoot)
	if err != nil {
		return nil, fmt.Errorf("labels: reading dataset root %s: %w", datasetRoot, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, datasetRoot)
	}

	sort.Strings(names)
	return Set(names), nil
}
