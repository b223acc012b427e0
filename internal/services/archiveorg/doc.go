// Package archiveorg uploads file sets to the Internet Archive through its
// S3-like endpoint.
//
// Each file is sent with a PUT to <endpoint>/<identifier>/<name>. Item
// metadata travels as x-archive-meta headers on every request so the first
// successful PUT creates the item with its full record. The uploader reports
// the HTTP status it received; deciding whether that status is a success is
// left to the caller.
package archiveorg
