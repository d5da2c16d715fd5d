package scouting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// preferredDataFiles are tried in order inside the data directory.
var preferredDataFiles = []string{
	"nfl_draft_combined.csv",
	"nfl_draft_engineered.csv",
	"default_data.csv",
}

// ResolveDataPath picks the table to load at startup: an explicit path, then
// the env path, then a preferred file in dataDir, then the first CSV in
// dataDir by name. ErrNoData is returned when nothing qualifies.
func ResolveDataPath(explicit, envPath, dataDir string) (string, error) {
	for _, p := range []string{explicit, envPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("data file %s: %w", p, err)
		}
		return p, nil
	}

	if dataDir == "" {
		return "", ErrNoData
	}
	for _, name := range preferredDataFiles {
		p := filepath.Join(dataDir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return "", err
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no CSV files in %s", ErrNoData, dataDir)
	}
	return matches[0], nil
}
