package metadata

import (
	"path/filepath"
	"strings"

	"archivist/internal/config"
	"archivist/internal/tabular"
)

// Resolved holds the canonical fields derived from one source record.
type Resolved struct {
	Identifier       string            `json:"identifier"`
	Title            string            `json:"title,omitempty"`
	Creator          []string          `json:"creator,omitempty"`
	Date             string            `json:"date,omitempty"`
	Subject          string            `json:"subject,omitempty"`
	Description      string            `json:"description,omitempty"`
	AudioDescription string            `json:"audio_description,omitempty"`
	Filename         string            `json:"filename,omitempty"`
	AssetID          string            `json:"asset_id,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
	// Degraded lists every fallback taken while resolving.
	Degraded []string `json:"degraded,omitempty"`
}

// IsDegraded reports whether any fallback was taken.
func (r Resolved) IsDegraded() bool {
	return len(r.Degraded) > 0
}

// Resolver applies a precedence table to source records.
type Resolver struct {
	rules   []FieldRule
	byName  map[string]FieldRule
	markers markers
}

// NewResolver builds a resolver over rules. Values matching a missing marker
// are treated as empty.
func NewResolver(rules []FieldRule, missingMarkers []string) *Resolver {
	r := &Resolver{
		rules:   append([]FieldRule(nil), rules...),
		byName:  make(map[string]FieldRule, len(rules)),
		markers: newMarkers(missingMarkers),
	}
	for _, rule := range r.rules {
		r.byName[rule.Name] = rule
	}
	return r
}

// NewResolverFromConfig builds a resolver from the configured field overrides
// and missing markers.
func NewResolverFromConfig(cfg *config.Config) *Resolver {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return NewResolver(RulesFromConfig(cfg.Fields.Rules), cfg.Mapping.MissingMarkers)
}

// Rules returns a copy of the resolver's precedence table.
func (r *Resolver) Rules() []FieldRule {
	return append([]FieldRule(nil), r.rules...)
}

// Resolve derives canonical fields from rec. It does not modify rec and always
// returns the same result for the same input.
func (r *Resolver) Resolve(rec tabular.Record) Resolved {
	res := Resolved{
		Title:            r.Field(rec, FieldTitle),
		Date:             r.Field(rec, FieldDate),
		Subject:          r.Field(rec, FieldSubject),
		Description:      r.Field(rec, FieldDescription),
		AudioDescription: r.Field(rec, FieldAudioDescription),
		Filename:         r.Field(rec, FieldFilename),
		AssetID:          r.Field(rec, FieldAssetID),
		Creator:          splitCreators(r.Field(rec, FieldCreator)),
	}

	for _, rule := range r.rules {
		if isCanonical(rule.Name) {
			continue
		}
		if value := r.Field(rec, rule.Name); value != "" {
			if res.Extra == nil {
				res.Extra = make(map[string]string)
			}
			res.Extra[rule.Name] = value
		}
	}

	res.Identifier, res.Degraded = r.identifier(rec, res.Filename)
	return res
}

// Field evaluates one named rule against rec. Unknown names yield "".
func (r *Resolver) Field(rec tabular.Record, name string) string {
	rule, ok := r.byName[name]
	if !ok {
		return ""
	}
	switch rule.Strategy {
	case StrategyConcat:
		parts := make([]string, 0, len(rule.Columns))
		for _, column := range rule.Columns {
			value := r.markers.clean(rec.Value(column))
			if name == FieldSubject {
				value = strings.ReplaceAll(value, "|", Separator)
			}
			if value = trimSeparator(value); value != "" {
				parts = append(parts, value)
			}
		}
		return strings.Join(parts, Separator)
	default:
		for _, column := range rule.Columns {
			if value := r.markers.clean(rec.Value(column)); value != "" {
				return value
			}
		}
		return ""
	}
}

// Clean applies the resolver's missing-marker policy to a raw value.
func (r *Resolver) Clean(value string) string {
	return r.markers.clean(value)
}

func (r *Resolver) identifier(rec tabular.Record, filename string) (string, []string) {
	if canonical := r.Field(rec, FieldIdentifier); canonical != "" {
		return canonical, nil
	}
	if filename == "" {
		return "", []string{"identifier: no canonical name or filename"}
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if strings.TrimSpace(stem) == "" {
		return filename, []string{"identifier: filename has no stem, using it unmodified"}
	}
	return stem, []string{"identifier: no canonical name, derived from filename"}
}

// splitCreators turns a concatenated creator value into trimmed names.
func splitCreators(value string) []string {
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, "|", " ; ")
	var names []string
	for _, part := range strings.Split(value, ";") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func isCanonical(name string) bool {
	switch name {
	case FieldCreator, FieldTitle, FieldDate, FieldSubject, FieldDescription,
		FieldAudioDescription, FieldIdentifier, FieldFilename, FieldAssetID:
		return true
	}
	return false
}
