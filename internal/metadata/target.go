package metadata

import (
	"encoding/json"
	"sort"
	"strings"
)

// Target is an archive metadata record. Scalar fields hold one value and array
// fields hold one value per element. Empty values are never stored.
type Target struct {
	values map[string][]string
	arrays map[string]bool
}

// NewTarget returns an empty record.
func NewTarget() *Target {
	return &Target{values: make(map[string][]string), arrays: make(map[string]bool)}
}

// Set stores a scalar field. Empty values remove the field.
func (t *Target) Set(key, value string) {
	value = trimSeparator(strings.TrimSpace(value))
	if value == "" {
		delete(t.values, key)
		delete(t.arrays, key)
		return
	}
	t.values[key] = []string{value}
	delete(t.arrays, key)
}

// SetArray stores an array field, dropping empty elements. A field with no
// remaining elements is removed.
func (t *Target) SetArray(key string, values ...string) {
	kept := make([]string, 0, len(values))
	for _, value := range values {
		if value = trimSeparator(strings.TrimSpace(value)); value != "" {
			kept = append(kept, value)
		}
	}
	if len(kept) == 0 {
		delete(t.values, key)
		delete(t.arrays, key)
		return
	}
	t.values[key] = kept
	t.arrays[key] = true
}

// Get returns a scalar value, or array elements joined with Separator.
func (t *Target) Get(key string) string {
	return strings.Join(t.values[key], Separator)
}

// Values returns a copy of the elements stored under key.
func (t *Target) Values(key string) []string {
	return append([]string(nil), t.values[key]...)
}

// Has reports whether key is present.
func (t *Target) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// IsArray reports whether key was stored as an array.
func (t *Target) IsArray(key string) bool {
	return t.arrays[key]
}

// Keys returns field names in sorted order.
func (t *Target) Keys() []string {
	keys := make([]string, 0, len(t.values))
	for key := range t.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of fields.
func (t *Target) Len() int {
	return len(t.values)
}

// MarshalJSON renders scalars as strings and arrays as lists.
func (t *Target) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.values))
	for key, values := range t.values {
		if t.arrays[key] {
			out[key] = values
			continue
		}
		out[key] = values[0]
	}
	return json.Marshal(out)
}
