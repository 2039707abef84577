// Package metrics defines the Prometheus metrics exported by the photo
// pipeline and the plain statistics snapshot handed to UI collaborators.
//
// Metric families:
//   - Cache: hits, misses, evictions, resident bytes/entries per tier
//   - Resample: operations by path and outcome, GPU processing duration
//   - Loader: seamless loads by outcome, decode failures
//   - Preload: scheduled tasks, in-flight gauge
//   - Memory: pressure events
//
// Prometheus counters are write-only diagnostics. The Snapshot struct is
// assembled from the components' own atomic counters, so the UI-facing
// statistics do not depend on the metrics registry.
package metrics
