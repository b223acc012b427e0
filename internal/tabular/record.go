package tabular

import "maps"

// Record is one source row keyed by column name.
type Record struct {
	// Row is the 1-based data row in the input artifact (the header is row 0).
	Row    int
	values map[string]string
}

// NewRecord copies values into a Record.
func NewRecord(row int, values map[string]string) Record {
	return Record{Row: row, values: maps.Clone(values)}
}

// Get returns the raw value stored for column and whether the column exists.
func (r Record) Get(column string) (string, bool) {
	if r.values == nil {
		return "", false
	}
	value, ok := r.values[column]
	return value, ok
}

// Value returns the raw value for column or an empty string.
func (r Record) Value(column string) string {
	value, _ := r.Get(column)
	return value
}

// Values returns a copy of the record's column map.
func (r Record) Values() map[string]string {
	return maps.Clone(r.values)
}

// Len reports how many columns the record carries.
func (r Record) Len() int {
	return len(r.values)
}
