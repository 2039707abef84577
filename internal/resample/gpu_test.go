//go:build !nogpu

package resample

import (
	"testing"

	"photo-pipeline/internal/pixel"
)

// requireGPU probes the real GPU path and skips when no device is present,
// so the equivalence suite runs on developer machines with working drivers
// and is silently skipped in CI containers.
func requireGPU(t *testing.T) Resampler {
	t.Helper()
	gpu, err := newGPUResampler()
	if err != nil {
		t.Skipf("no usable GPU: %v", err)
	}
	t.Cleanup(func() {
		if c, ok := gpu.(interface{ Close() }); ok {
			c.Close()
		}
	})
	return gpu
}

// maxChannelDiff returns the largest per-channel difference between two
// equally sized buffers.
func maxChannelDiff(a, b *pixel.Buffer) int {
	da, db := a.Data(), b.Data()
	max := 0
	for i := range da {
		d := int(da[i]) - int(db[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}

func TestGPUMatchesCPU(t *testing.T) {
	gpu := requireGPU(t)

	src := pixel.New(97, 41)
	for y := 0; y < 41; y++ {
		for x := 0; x < 97; x++ {
			src.SetRGBA(x, y, uint8(x*2+y), uint8(255-x), uint8(y*6), 255)
		}
	}

	targets := []struct{ w, h int }{{44, 44}, {120, 120}, {300, 120}, {13, 57}}
	for _, tgt := range targets {
		cpuOut, err := CPU{}.Resample(src, tgt.w, tgt.h)
		if err != nil {
			t.Fatalf("CPU resample %dx%d: %v", tgt.w, tgt.h, err)
		}
		gpuOut, err := gpu.Resample(src, tgt.w, tgt.h)
		if err != nil {
			t.Fatalf("GPU resample %dx%d: %v", tgt.w, tgt.h, err)
		}

		// f32 vs f64 interpolation rounds differently by at most one step
		// per channel.
		if diff := maxChannelDiff(cpuOut, gpuOut); diff > 2 {
			t.Errorf("target %dx%d: max channel diff = %d, want <= 2", tgt.w, tgt.h, diff)
		}
	}
}

func TestGPUForcesOpaqueAlpha(t *testing.T) {
	gpu := requireGPU(t)

	src := pixel.New(8, 8) // all zero, including alpha
	out, err := gpu.Resample(src, 4, 4)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	for i := 3; i < len(out.Data()); i += 4 {
		if out.Data()[i] != 0xFF {
			t.Fatalf("alpha sample %d = %d, want 255", i, out.Data()[i])
		}
	}
}

func TestGPUInvalidDimensions(t *testing.T) {
	gpu := requireGPU(t)

	if _, err := gpu.Resample(nil, 4, 4); err == nil {
		t.Error("nil source did not error")
	}
	if _, err := gpu.Resample(pixel.New(4, 4), 0, 4); err == nil {
		t.Error("zero target did not error")
	}
}
