// Package ledger persists batch run history in SQLite.
//
// Each invocation of the uploader opens one run row and appends one outcome
// row per source record as it reaches a terminal state. The ledger is
// diagnostic only: the retry artifact, not the ledger, carries failed
// records into the next run.
//
// The schema is versioned through the schema_version table. A mismatch is
// reported as ErrSchemaMismatch rather than migrated in place.
package ledger
