// Package services defines shared utilities consumed by the batch pipeline
// stages and the external collaborators they call.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, row numbers, asset ids and
//     stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures into
//     the pipeline's error taxonomy (record-local vs process-fatal).
//
// Collaborator clients live in sub-packages (resourcespace, archiveorg) so the
// pipeline core depends only on function-shaped capabilities.
package services
