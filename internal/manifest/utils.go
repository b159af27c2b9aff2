package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GeneratePath creates a timestamped manifest filename in dir.
// kind is "plan" or "run"; the run id keeps runs started in the same
// second apart.
func GeneratePath(dir, kind, runID string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.yaml", kind, timestamp, runID))
}

// FindLatest finds the most recent manifest of the given kind in dir.
func FindLatest(dir, kind string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest directory: %w", err)
	}

	var manifests []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, kind+"_") && strings.HasSuffix(name, ".yaml") {
			manifests = append(manifests, filepath.Join(dir, entry.Name()))
		}
	}

	if len(manifests) == 0 {
		return "", fmt.Errorf("no %s manifests found in %s", kind, dir)
	}

	// Newest first
	sort.Slice(manifests, func(i, j int) bool {
		infoI, _ := os.Stat(manifests[i])
		infoJ, _ := os.Stat(manifests[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return manifests[0], nil
}
