// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics
