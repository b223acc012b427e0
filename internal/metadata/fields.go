package metadata

import (
	"strings"

	"archivist/internal/config"
)

// Strategy selects how a rule merges its candidate columns.
type Strategy string

const (
	// StrategyFirst takes the first non-empty column in precedence order.
	StrategyFirst Strategy = "first"
	// StrategyConcat joins every non-empty column with Separator.
	StrategyConcat Strategy = "concat"
)

// Separator joins concatenated values.
const Separator = "; "

// Canonical field names.
const (
	FieldCreator          = "creator"
	FieldTitle            = "title"
	FieldDate             = "date"
	FieldSubject          = "subject"
	FieldDescription      = "description"
	FieldAudioDescription = "audio_description"
	FieldIdentifier       = "identifier"
	FieldFilename         = "filename"
	FieldAssetID          = "asset_id"
)

// FieldRule is one row of the precedence table.
type FieldRule struct {
	Name     string
	Strategy Strategy
	Columns  []string
}

// DefaultRules returns the built-in precedence table.
func DefaultRules() []FieldRule {
	return []FieldRule{
		{Name: FieldCreator, Strategy: StrategyConcat, Columns: []string{"Directors / Filmmakers", "Directors/Filmmakers", "Speaker/Interviewee", "Creator"}},
		{Name: FieldTitle, Strategy: StrategyConcat, Columns: []string{"Title", "Alternative Title", "Event title", "Event series", "PFA film series"}},
		{Name: FieldDate, Strategy: StrategyFirst, Columns: []string{"Release Date", "Date of recording", "Event year", "Date"}},
		{Name: FieldSubject, Strategy: StrategyConcat, Columns: []string{"Subject(s): Film title(s)", "Subject(s): Topics(s)", "Subject(s): Names"}},
		{Name: FieldDescription, Strategy: StrategyConcat, Columns: []string{"Description"}},
		{Name: FieldAudioDescription, Strategy: StrategyConcat, Columns: []string{"Description", "Event series", "Event title", "Subject(s): Topics(s)"}},
		{Name: FieldIdentifier, Strategy: StrategyFirst, Columns: []string{"Source canonical name", `Source canonical "name"`}},
		{Name: FieldFilename, Strategy: StrategyFirst, Columns: []string{"Access copy filename", "filename"}},
		{Name: FieldAssetID, Strategy: StrategyFirst, Columns: []string{"Resource ID(s)", "Resource ID", "ref"}},
	}
}

// RulesFromConfig merges configured overrides into the default table. A rule
// with a known name replaces the default; other names are appended in the
// order they were configured.
func RulesFromConfig(overrides []config.FieldRule) []FieldRule {
	rules := DefaultRules()
	index := make(map[string]int, len(rules))
	for i, rule := range rules {
		index[rule.Name] = i
	}
	for _, override := range overrides {
		name := strings.ToLower(strings.TrimSpace(override.Name))
		if name == "" || len(override.Columns) == 0 {
			continue
		}
		rule := FieldRule{
			Name:     name,
			Strategy: Strategy(strings.ToLower(strings.TrimSpace(override.Strategy))),
			Columns:  append([]string(nil), override.Columns...),
		}
		if rule.Strategy != StrategyConcat {
			rule.Strategy = StrategyFirst
		}
		if i, ok := index[name]; ok {
			rules[i] = rule
			continue
		}
		index[name] = len(rules)
		rules = append(rules, rule)
	}
	return rules
}

// markers holds the lower-cased missing-value sentinels.
type markers map[string]struct{}

func newMarkers(values []string) markers {
	m := make(markers, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			m[value] = struct{}{}
		}
	}
	return m
}

// clean trims value and blanks it when it is a missing marker.
func (m markers) clean(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if _, ok := m[strings.ToLower(value)]; ok {
		return ""
	}
	return value
}

// trimSeparator removes a dangling concatenation separator.
func trimSeparator(value string) string {
	return strings.TrimRight(value, "; ")
}
