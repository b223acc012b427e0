package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"archivist/internal/services"
)

// Format identifies the on-disk encoding of a table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrEmptyTable indicates the artifact has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// Table is a complete tabular artifact. Columns holds the normalised,
// de-duplicated names records are keyed by; Header holds the header cells as
// read, so a rewritten artifact keeps the source's header row.
type Table struct {
	Path    string
	Format  Format
	Sheet   string
	Header  []string
	Columns []string
	Records []Record
}

// FormatForPath infers the table format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported table extension %q", filepath.Ext(path))
	}
}

// ReadFile loads the entire artifact at path.
func ReadFile(path string) (*Table, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "tabular", "detect format", path, err)
	}

	var rows [][]string
	var sheet string
	switch format {
	case FormatCSV:
		rows, err = readCSV(path)
	case FormatXLSX:
		rows, sheet, err = readXLSX(path)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "tabular", "read", path, err)
	}

	table, err := build(rows)
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "tabular", "parse", path, err)
	}
	table.Path = path
	table.Format = format
	table.Sheet = sheet
	return table, nil
}

// Len returns the number of data records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Subset returns a table sharing this table's schema with only the given
// records, in the order supplied.
func (t *Table) Subset(records []Record) *Table {
	out := &Table{
		Path:    t.Path,
		Format:  t.Format,
		Sheet:   t.Sheet,
		Header:  append([]string(nil), t.Header...),
		Columns: append([]string(nil), t.Columns...),
	}
	if len(records) > 0 {
		out.Records = append([]Record(nil), records...)
	}
	return out
}

// HasColumn reports whether the header row contains name.
func (t *Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// headerRow is the row written above the records: the source header when it
// lines up with Columns, otherwise the column names themselves.
func (t *Table) headerRow() []string {
	if len(t.Header) == len(t.Columns) {
		return t.Header
	}
	return t.Columns
}

func build(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	header := rows[0]
	columns := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for idx, raw := range header {
		name := NormalizeHeader(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s (%d)", name, n+1)
		} else {
			seen[name] = 1
		}
		columns = append(columns, name)
	}
	if allEmpty(header) {
		return nil, ErrEmptyTable
	}

	table := &Table{Header: append([]string(nil), header...), Columns: columns}
	for idx, row := range rows[1:] {
		if allEmpty(row) {
			continue
		}
		values := make(map[string]string, len(columns))
		for col, name := range columns {
			if col < len(row) {
				values[name] = row[col]
			} else {
				values[name] = ""
			}
		}
		table.Records = append(table.Records, Record{Row: idx + 1, values: values})
	}
	return table, nil
}

// NormalizeHeader trims a header cell and converts it to NFC so that visually
// identical column names compare equal.
func NormalizeHeader(value string) string {
	value = strings.TrimPrefix(value, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(value))
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
