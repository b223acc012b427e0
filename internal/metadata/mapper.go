package metadata

import (
	"strings"

	"archivist/internal/config"
	"archivist/internal/language"
	"archivist/internal/services"
	"archivist/internal/tabular"
)

// Archive field names.
const (
	TargetIdentifier = "identifier"
	TargetMediaType  = "mediatype"
	TargetCollection = "collection"
	TargetTitle      = "title"
	TargetCreator    = "creator"
	TargetNotes      = "notes"
	TargetRights     = "rights"
	TargetLanguage   = "language"
)

// languageColumn holds free-text language names, normalized to MARC codes.
const languageColumn = "Language"

// passthrough copies a source column to an archive field.
type passthrough struct {
	target string
	column string
}

var commonFields = []passthrough{
	{target: "contributor", column: "Resource type"},
	{target: "coverage", column: "Location of recording"},
	{target: "source", column: "Medium of original"},
	{target: "external-identifier", column: "PFA full accession number"},
	{target: "condition", column: "Original Material Condition"},
}

var visualFields = []passthrough{
	{target: "frames_per_second", column: "Frame rate"},
	{target: "source_pixel_width", column: "Video width"},
	{target: "source_pixel_height", column: "Video height"},
	{target: "color", column: "Color characteristics"},
	{target: "sound", column: "PFA item sound characteristics"},
}

// MapperOptions configures the boilerplate attached to every record.
type MapperOptions struct {
	Collections     []string
	RightsStatement string
	NotesCredit     string
	MissingMarkers  []string
	RequiredFields  []string
}

// Mapper builds archive metadata records.
type Mapper struct {
	opts    MapperOptions
	markers markers
}

// NewMapper constructs a Mapper.
func NewMapper(opts MapperOptions) *Mapper {
	return &Mapper{opts: opts, markers: newMarkers(opts.MissingMarkers)}
}

// NewMapperFromConfig constructs a Mapper from the archive and mapping sections.
func NewMapperFromConfig(cfg *config.Config) *Mapper {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return NewMapper(MapperOptions{
		Collections:     cfg.Archive.Collections,
		RightsStatement: cfg.Archive.RightsStatement,
		NotesCredit:     cfg.Archive.NotesCredit,
		MissingMarkers:  cfg.Mapping.MissingMarkers,
		RequiredFields:  cfg.Mapping.RequiredFields,
	})
}

// Map combines resolved fields with pass-through columns of rec. The returned
// list names required fields that are absent but not fatal. A missing
// identifier fails with services.ErrMappingIncomplete.
func (m *Mapper) Map(resolved Resolved, rec tabular.Record, media config.MediaType) (*Target, []string, error) {
	target := NewTarget()
	m.set(target, TargetIdentifier, resolved.Identifier)
	m.set(target, TargetMediaType, media.ArchiveMediaType())
	m.setArray(target, TargetCollection, m.opts.Collections...)
	m.set(target, TargetTitle, resolved.Title)
	m.setArray(target, TargetCreator, resolved.Creator...)
	m.set(target, FieldDate, resolved.Date)
	m.set(target, FieldSubject, resolved.Subject)
	if media.IsVisual() {
		m.set(target, FieldDescription, resolved.Description)
	} else {
		m.set(target, FieldDescription, resolved.AudioDescription)
	}
	m.set(target, TargetNotes, joinLines(m.markers.clean(rec.Value("Notes")), m.opts.NotesCredit))
	m.set(target, TargetRights, m.opts.RightsStatement)

	for _, field := range commonFields {
		m.set(target, field.target, rec.Value(field.column))
	}
	m.setArray(target, TargetLanguage, language.Normalize(m.markers.clean(rec.Value(languageColumn)))...)
	if media.IsVisual() {
		for _, field := range visualFields {
			m.set(target, field.target, rec.Value(field.column))
		}
	}
	for name, value := range resolved.Extra {
		if !target.Has(name) {
			m.set(target, name, value)
		}
	}

	if !target.Has(TargetIdentifier) {
		return nil, nil, services.Wrap(services.ErrMappingIncomplete, "mapping", "identifier", "no identifier after resolution", nil)
	}

	var missing []string
	for _, field := range m.opts.RequiredFields {
		field = strings.TrimSpace(field)
		if field != "" && !target.Has(field) {
			missing = append(missing, field)
		}
	}
	return target, missing, nil
}

func (m *Mapper) set(target *Target, key, value string) {
	target.Set(key, m.markers.clean(value))
}

func (m *Mapper) setArray(target *Target, key string, values ...string) {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		cleaned = append(cleaned, m.markers.clean(value))
	}
	target.SetArray(key, cleaned...)
}

func joinLines(values ...string) string {
	kept := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			kept = append(kept, value)
		}
	}
	return strings.Join(kept, "\n")
}
