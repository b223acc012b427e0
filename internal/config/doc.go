// Package config loads, normalizes, and validates archivist configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RESOURCESPACE_API_KEY and IA_SECRET_KEY. A .env file in the working directory
// is consulted before the environment so operators can keep credentials next
// to their exports without exporting them in every shell.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a parsed media type, and clear validation errors before the
// first record of a batch is read.
package config
