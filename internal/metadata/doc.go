// Package metadata reduces a DAM export row to canonical descriptive fields
// and maps them onto the archive's metadata schema.
//
// Resolution is table driven: each canonical field names an ordered list of
// source columns and a merge strategy. The Resolver never fails; fallbacks it
// takes are reported on the result so callers can log them. The Mapper adds
// media-specific fields and the configured boilerplate, then prunes empty
// values so a Target never carries blank or placeholder entries.
package metadata
