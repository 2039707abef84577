//go:build nogpu

package resample

import "errors"

// newGPUResampler always fails under the nogpu build tag; the engine runs
// CPU-only without pulling in the wgpu backend.
func newGPUResampler() (Resampler, error) {
	return nil, errors.New("built without GPU support (nogpu tag)")
}
