// Package resourcespace implements the signed query transport for the
// ResourceSpace DAM API.
//
// Every query is signed with the user's private key, throttled by a token
// bucket, and answered with raw text that has quoting stripped. A non-200
// status is reported as a transport failure; interpreting the text is left to
// callers.
package resourcespace
