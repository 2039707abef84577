// Package loader serves images seamlessly: a cached thumbnail first, the
// full-resolution original as soon as it is ready.
//
// Every request walks the same state machine: Idle, ThumbnailServed,
// OriginalLoading, then OriginalServed or Failed. Callers receive exactly
// one thumbnail callback followed by exactly one original callback, in that
// order, marshaled onto a caller-owned serial dispatcher so UI code never
// sees concurrent delivery. Failures surface as nil buffers, never errors.
//
// Cancellation is cooperative. Once a request's context is cancelled no
// further callbacks fire, but decode and cache population run to completion
// so the work benefits the next request for the same image.
//
// Progressive sessions layer a monotonic quality guarantee on top: the
// displayed level never decreases, no matter in which order renditions
// become available.
package loader
