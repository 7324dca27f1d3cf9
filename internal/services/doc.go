// Package services defines shared plumbing consumed by the ingestion
// coordinator and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp queue entry IDs, processing steps, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper; DispositionFor turns a
//     processing failure into the queue action (drop vs retry).
//
// Use these helpers when wiring new processing steps so error handling and
// observability stay uniform across the pipeline.
package services
