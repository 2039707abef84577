// Package memory watches process heap usage and signals pressure.
//
// Monitor samples runtime.MemStats on an interval and compares heap
// allocation against a soft limit (explicit, or derived from GOMEMLIMIT).
// Crossing the critical watermark fires every registered pressure handler
// exactly once per episode and forces a garbage collection; recovery below
// the high watermark re-arms the signal. The caches and the preload set
// register handlers so a pressure episode empties them unconditionally.
//
// ConfigureFromEnv wires GOMEMLIMIT from a container memory limit passed
// via the environment, reserving headroom for non-heap allocations.
package memory
