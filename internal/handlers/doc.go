// Package handlers implements the HTTP API over a gallery: health and
// version probes, image ingest and retrieval, thumbnail rendering, preload
// hints, and the statistics snapshot.
package handlers
