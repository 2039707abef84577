// Package resample implements aspect-fill image resampling with a GPU
// compute path and a deterministic CPU fallback.
//
// Both implementations use the same center-crop formula: the source is
// scaled by max(targetW/srcW, targetH/srcH) so it covers the whole target
// rectangle, then sampled bilinearly around the centered crop window.
// Output alpha is always forced to fully opaque.
//
// The Engine tries the GPU first and silently falls back to the CPU
// rasterizer on any GPU failure. Fallbacks are counted, never surfaced.
// GPU availability is probed once at construction and cached for the
// process lifetime. Builds with the "nogpu" tag compile without the
// wgpu backend and always use the CPU path.
package resample
