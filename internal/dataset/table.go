package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/scoutsense/internal/models"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyTable    = errors.New("table has no rows")
)

// Table is an immutable view over a draft dataset. Every With* method returns
// a new Table and leaves the receiver untouched.
type Table struct {
	df dataframe.DataFrame
}

// NewTable wraps a gota DataFrame, surfacing any error it carries.
func NewTable(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("invalid dataframe: %w", df.Err)
	}
	return &Table{df: df}, nil
}

// FromRecords builds a table from a header row followed by data rows. Headers
// are normalised and column types inferred the same way as LoadCSV.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row: %w", ErrEmptyTable)
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = NormalizeColumn(h)
	}
	rows := records[1:]

	columns := make([]series.Series, len(header))
	for c, name := range header {
		values := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				values[r] = row[c]
			}
		}
		columns[c] = inferColumn(name, values)
	}
	return NewTable(dataframe.New(columns...))
}

// NormalizeColumn trims, lower-cases and replaces spaces with underscores.
// Position tier one-hot columns keep an upper-case tier suffix, so
// pos_tier_SKILL survives a write and reload under the same name.
func NormalizeColumn(name string) string {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	if suffix, ok := strings.CutPrefix(norm, models.ColTierPrefix); ok {
		return models.ColTierPrefix + strings.ToUpper(suffix)
	}
	return norm
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.df.Nrow() }

// Columns returns column names in table order.
func (t *Table) Columns() []string { return t.df.Names() }

// Has reports whether a column exists.
func (t *Table) Has(col string) bool {
	for _, name := range t.df.Names() {
		if name == col {
			return true
		}
	}
	return false
}

// IsNumeric reports whether a column holds numbers.
func (t *Table) IsNumeric(col string) bool {
	if !t.Has(col) {
		return false
	}
	typ := t.df.Col(col).Type()
	return typ == series.Float || typ == series.Int
}

// NumericColumns lists numeric columns in table order.
func (t *Table) NumericColumns() []string {
	var cols []string
	for i, typ := range t.df.Types() {
		if typ == series.Float || typ == series.Int {
			cols = append(cols, t.df.Names()[i])
		}
	}
	return cols
}

// Floats returns a column as numbers. Text columns are parsed value by value
// and anything unparseable becomes NaN. A missing column is all NaN.
func (t *Table) Floats(col string) []float64 {
	n := t.Len()
	out := make([]float64, n)
	if !t.Has(col) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	s := t.df.Col(col)
	if s.Type() == series.Float || s.Type() == series.Int {
		copy(out, s.Float())
		return out
	}
	for i, raw := range t.Strings(col) {
		out[i] = ParseNumber(raw)
	}
	return out
}

// Strings returns a column as text, with missing values as "".
func (t *Table) Strings(col string) []string {
	out := make([]string, t.Len())
	if !t.Has(col) {
		return out
	}
	s := t.df.Col(col)
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		if s.Type() == series.Float {
			v := e.Float()
			if math.IsNaN(v) {
				continue
			}
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
			continue
		}
		out[i] = e.String()
	}
	return out
}

// WithFloats returns a copy of the table with col set to vals.
func (t *Table) WithFloats(col string, vals []float64) *Table {
	return t.mutate(series.New(vals, series.Float, col))
}

// WithInts returns a copy of the table with col set to integer vals.
func (t *Table) WithInts(col string, vals []int) *Table {
	return t.mutate(series.New(vals, series.Int, col))
}

// WithStrings returns a copy of the table with col set to text vals.
func (t *Table) WithStrings(col string, vals []string) *Table {
	return t.mutate(series.New(vals, series.String, col))
}

func (t *Table) mutate(s series.Series) *Table {
	if s.Len() != t.Len() {
		panic(fmt.Sprintf("dataset: column %q has %d values for %d rows", s.Name, s.Len(), t.Len()))
	}
	return &Table{df: t.df.Mutate(s)}
}

// Subset returns the rows at the given indexes, in that order.
func (t *Table) Subset(rows []int) *Table {
	if len(rows) == 0 {
		cols := make([]series.Series, 0, t.df.Ncol())
		for i, name := range t.df.Names() {
			if typ := t.df.Types()[i]; typ == series.Float || typ == series.Int {
				cols = append(cols, series.New([]float64{}, typ, name))
			} else {
				cols = append(cols, series.New([]string{}, series.String, name))
			}
		}
		return &Table{df: dataframe.New(cols...)}
	}
	return &Table{df: t.df.Subset(rows)}
}

// Matrix returns the selected columns as a dense rows x cols matrix. Missing
// values stay NaN.
func (t *Table) Matrix(cols []string) *mat.Dense {
	rows := t.Len()
	if rows == 0 || len(cols) == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, rows*len(cols))
	for c, col := range cols {
		for r, v := range t.Floats(col) {
			data[r*len(cols)+c] = v
		}
	}
	return mat.NewDense(rows, len(cols), data)
}

// Records materialises every row as a PlayerRecord.
func (t *Table) Records() []models.PlayerRecord {
	n := t.Len()
	names := t.Strings(models.ColName)
	teams := t.Strings(models.ColTeam)
	colleges := t.Strings(models.ColCollege)
	positions := t.Strings(models.ColPos)
	normalized := t.Strings(models.ColPosition)
	picks := t.Floats(models.ColDraftPick)
	ages := t.Floats(models.ColAge)
	heights := t.Strings(models.ColHeight)
	weights := t.Strings(models.ColWeight)
	years := t.Strings(models.ColCollegeYears)
	meets := t.Strings(models.ColMeets)

	numeric := t.NumericColumns()
	values := make([][]float64, len(numeric))
	for c, col := range numeric {
		values[c] = t.Floats(col)
	}

	out := make([]models.PlayerRecord, n)
	for i := 0; i < n; i++ {
		features := make(map[string]float64, len(numeric))
		for c, col := range numeric {
			features[col] = values[c][i]
		}
		out[i] = models.PlayerRecord{
			Index:        i,
			Name:         names[i],
			Team:         teams[i],
			College:      colleges[i],
			Pos:          positions[i],
			Position:     normalized[i],
			DraftPick:    picks[i],
			Age:          ages[i],
			Height:       heights[i],
			Weight:       weights[i],
			CollegeYears: years[i],
			Meets:        meets[i],
			Features:     features,
		}
	}
	return out
}

// DataFrame exposes the underlying gota frame.
func (t *Table) DataFrame() dataframe.DataFrame { return t.df }

// WriteCSV writes the table with a header row. Floats are written in their
// shortest exact form and NaN as an empty cell, so a reload sees the same values.
func (t *Table) WriteCSV(w io.Writer) error {
	cols := make([]series.Series, 0, t.df.Ncol())
	for i, name := range t.df.Names() {
		if t.df.Types()[i] != series.Float {
			cols = append(cols, t.df.Col(name))
			continue
		}
		cols = append(cols, series.New(formatFloats(t.df.Col(name).Float()), series.String, name))
	}
	out := dataframe.New(cols...)
	if out.Err != nil {
		return fmt.Errorf("failed to prepare csv: %w", out.Err)
	}
	if err := out.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func formatFloats(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

// SaveCSV writes the table to path.
func (t *Table) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ParseNumber is a lenient float parser; failures yield NaN.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "nan", "<nil>", "none", "null":
		return math.NaN()
	case "true":
		return 1
	case "false":
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func inferColumn(name string, values []string) series.Series {
	for _, id := range models.IdentityColumns {
		if name == id {
			return series.New(values, series.String, name)
		}
	}

	parsed := make([]float64, len(values))
	numeric := true
	for i, raw := range values {
		parsed[i] = ParseNumber(raw)
		if math.IsNaN(parsed[i]) && !isBlank(raw) {
			numeric = false
		}
	}
	// draft_pick and age are always coerced, the rest only when clean
	if numeric || name == models.ColDraftPick || name == models.ColAge {
		return series.New(parsed, series.Float, name)
	}
	return series.New(values, series.String, name)
}

func isBlank(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "na", "nan", "<nil>", "none", "null":
		return true
	}
	return false
}
