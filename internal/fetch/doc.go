// Package fetch turns an operator-supplied input reference into a local file.
//
// Local paths pass through. Google Drive share links, plain http(s) URLs and
// s3://bucket/key references are downloaded into the work directory under a
// timestamped name so that repeated downloads never overwrite each other.
package fetch
