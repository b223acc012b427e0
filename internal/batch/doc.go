// Package batch drives one tabular input through resolve, locate, transform,
// map and upload, one record at a time.
//
// Every record ends in a terminal state. Failures stay local to the record:
// its original row is appended to the retry batch, which keeps the input's
// schema and order and is written as a new artifact when the run finishes.
// Only an unusable input or an invalid media selection aborts a run.
//
// Cancellation is observed between records. A record that has started always
// reaches a terminal state; records never started are carried into the retry
// batch.
package batch
