// Package connector defines the contract between the ingestion engine and
// external knowledge systems.
//
// A Connector pulls a bounded batch of raw records since a checkpoint and
// reports a new checkpoint that a later pull can restart from. Connectors
// classify their failures into the taxonomy in errors.go so the job runner
// can decide between failing fast (authentication) and retrying with backoff
// (rate limits, transient I/O).
package connector
