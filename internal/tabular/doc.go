// Package tabular reads the operator's metadata export and writes retry
// artifacts in the same schema.
//
// CSV and XLSX inputs are supported. Header names are trimmed and NFC
// normalised so spreadsheets saved on different platforms resolve to the same
// columns. A Table is read completely before any record is processed and its
// records are never mutated afterwards; retry batches are built with Subset and
// serialized once with Write.
package tabular
