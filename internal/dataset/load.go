package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/stitts-dev/scoutsense/pkg/logger"
)

// LoadCSV reads a draft table from disk.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	logger.WithDataset(path, t.Len()).WithField("columns", len(t.Columns())).Info("Loaded draft data")
	return t, nil
}

// ReadCSV parses a draft table. Headers are normalised (trimmed, lower-case,
// spaces to underscores), so "Draft Pick" and "College/Yrs" become
// draft_pick and college/yrs.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return FromRecords(records)
}

// RequireColumns fails with ErrMissingColumn naming every absent column.
func RequireColumns(t *Table, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}
	return nil
}
