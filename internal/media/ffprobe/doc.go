// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including pixel aspect ratio
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helpers on Result and Stream answer the one question archivist asks before
// uploading video: are the pixels already square?
package ffprobe
