// Package logging assembles structured slog loggers and formatting helpers used
// across archivist.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline stages can tag log
// lines with run ids, row numbers, asset ids and stage names. Console output is
// coloured only when written to a terminal. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
