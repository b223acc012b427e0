// Package locator resolves a DAM asset id to the ordered set of local files
// that make up the asset: the primary file first, then every alternate.
//
// The DAM answers with loosely delimited text, so alternate descriptors are
// tokenised into strict (ref, extension) pairs before any follow-up query is
// issued. Location is all or nothing: a FileSet is returned only when the
// primary and every alternate resolved.
package locator
