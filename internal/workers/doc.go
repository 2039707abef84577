// Package workers sizes and runs worker pools.
//
// Worker counts derive from GOMAXPROCS rather than runtime.NumCPU so that
// container CPU limits are respected (Go 1.19+ sets GOMAXPROCS from cgroup
// quotas). The PIPELINE_WORKERS environment variable overrides the
// calculation for operators tuning a specific deployment.
//
// Pool is a fixed-size pool with a bounded queue: Submit blocks when the
// queue is full so producers are backpressured instead of accumulating an
// unbounded backlog of decode work.
package workers
