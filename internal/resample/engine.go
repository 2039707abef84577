package resample

import (
	"sync/atomic"
	"time"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/pixel"
)

// Engine dispatches resampling to the GPU when available and transparently
// falls back to the CPU rasterizer on any GPU error. The GPU capability
// probe runs once, in NewEngine.
type Engine struct {
	cpu CPU
	gpu Resampler // nil when the probe failed or GPU was disabled

	gpuSuccess  atomic.Uint64
	gpuFallback atomic.Uint64
	gpuNanos    atomic.Int64
}

// Options configures engine construction.
type Options struct {
	// DisableGPU skips the GPU probe entirely and forces the CPU path.
	DisableGPU bool
}

// Stats is a point-in-time snapshot of engine counters.
type Stats struct {
	GPUAvailable   bool
	GPUSuccess     uint64
	GPUFallback    uint64
	GPUSuccessRate float64
	AvgGPUTime     time.Duration
}

// NewEngine creates an engine, probing GPU availability once.
// A failed probe is not an error: the engine simply runs CPU-only.
func NewEngine(opts Options) *Engine {
	e := &Engine{}

	if opts.DisableGPU {
		logging.Info("Resample engine: GPU disabled by configuration")
		return e
	}

	gpu, err := newGPUResampler()
	if err != nil {
		logging.Info("Resample engine: GPU unavailable, using CPU rasterizer: %v", err)
		return e
	}

	logging.Info("Resample engine: GPU compute path enabled")
	e.gpu = gpu
	return e
}

// GPUAvailable reports whether the GPU path passed its startup probe.
func (e *Engine) GPUAvailable() bool {
	return e.gpu != nil
}

// Resample scales src to the target size, GPU-first.
// GPU failures degrade silently to the CPU path and are counted.
func (e *Engine) Resample(src *pixel.Buffer, targetWidth, targetHeight int) (*pixel.Buffer, error) {
	if src == nil || src.Width() <= 0 || src.Height() <= 0 || targetWidth <= 0 || targetHeight <= 0 {
		return nil, ErrInvalidDimensions
	}

	if e.gpu != nil {
		start := time.Now()
		out, err := e.gpu.Resample(src, targetWidth, targetHeight)
		if err == nil {
			elapsed := time.Since(start)
			e.gpuSuccess.Add(1)
			e.gpuNanos.Add(elapsed.Nanoseconds())
			metrics.ResampleOperations.WithLabelValues("gpu", "success").Inc()
			metrics.GPUProcessingDuration.Observe(elapsed.Seconds())
			return out, nil
		}
		e.gpuFallback.Add(1)
		metrics.ResampleOperations.WithLabelValues("gpu", "fallback").Inc()
		logging.Debug("GPU resample failed (%dx%d -> %dx%d), falling back to CPU: %v",
			src.Width(), src.Height(), targetWidth, targetHeight, err)
	}

	out, err := e.cpu.Resample(src, targetWidth, targetHeight)
	if err != nil {
		metrics.ResampleOperations.WithLabelValues("cpu", "error").Inc()
		return nil, err
	}
	metrics.ResampleOperations.WithLabelValues("cpu", "success").Inc()
	return out, nil
}

// Close releases GPU resources, if any.
func (e *Engine) Close() {
	if c, ok := e.gpu.(interface{ Close() }); ok {
		c.Close()
	}
}

// Stats returns current dispatch counters.
func (e *Engine) Stats() Stats {
	success := e.gpuSuccess.Load()
	fallback := e.gpuFallback.Load()

	var rate float64
	if total := success + fallback; total > 0 {
		rate = float64(success) / float64(total)
	}

	var avg time.Duration
	if success > 0 {
		avg = time.Duration(e.gpuNanos.Load() / int64(success)) //nolint:gosec // success > 0
	}

	return Stats{
		GPUAvailable:   e.gpu != nil,
		GPUSuccess:     success,
		GPUFallback:    fallback,
		GPUSuccessRate: rate,
		AvgGPUTime:     avg,
	}
}
