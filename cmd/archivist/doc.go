// Command archivist uploads batches of DAM assets to the Internet Archive.
//
// A batch is a CSV or XLSX export with one row per asset. Each row is
// resolved into canonical metadata, its files are located through the DAM
// query API, and the item is uploaded over the archive's S3-like interface.
// Rows that fail are written to a retry artifact with the input's schema.
package main
