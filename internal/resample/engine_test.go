package resample

import (
	"errors"
	"testing"

	"photo-pipeline/internal/pixel"
)

// failingGPU always errors, standing in for command-buffer failures.
type failingGPU struct {
	calls int
}

func (f *failingGPU) Resample(_ *pixel.Buffer, _, _ int) (*pixel.Buffer, error) {
	f.calls++
	return nil, errors.New("simulated command buffer failure")
}

// fixedGPU returns a canned buffer so tests can tell which path ran.
type fixedGPU struct {
	out *pixel.Buffer
}

func (f *fixedGPU) Resample(_ *pixel.Buffer, _, _ int) (*pixel.Buffer, error) {
	return f.out, nil
}

func gradientBuffer(w, h int) *pixel.Buffer {
	buf := pixel.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGBA(x, y, uint8(x*7), uint8(y*11), 128, 255)
		}
	}
	return buf
}

func TestEngineCPUOnly(t *testing.T) {
	e := NewEngine(Options{DisableGPU: true})
	if e.GPUAvailable() {
		t.Fatal("GPUAvailable() = true with DisableGPU")
	}

	out, err := e.Resample(gradientBuffer(32, 32), 8, 8)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if out.Width() != 8 || out.Height() != 8 {
		t.Errorf("output = %dx%d, want 8x8", out.Width(), out.Height())
	}

	stats := e.Stats()
	if stats.GPUSuccess != 0 || stats.GPUFallback != 0 {
		t.Errorf("unexpected GPU counters: %+v", stats)
	}
}

func TestEngineSilentFallback(t *testing.T) {
	gpu := &failingGPU{}
	e := &Engine{gpu: gpu}

	src := gradientBuffer(16, 16)
	out, err := e.Resample(src, 4, 4)
	if err != nil {
		t.Fatalf("Resample must not surface GPU errors, got %v", err)
	}
	if out == nil || out.Width() != 4 {
		t.Fatal("CPU fallback did not produce output")
	}
	if gpu.calls != 1 {
		t.Errorf("GPU calls = %d, want 1", gpu.calls)
	}

	stats := e.Stats()
	if stats.GPUFallback != 1 {
		t.Errorf("GPUFallback = %d, want 1", stats.GPUFallback)
	}
	if stats.GPUSuccessRate != 0 {
		t.Errorf("GPUSuccessRate = %v, want 0", stats.GPUSuccessRate)
	}
}

func TestEngineGPUSuccessCounted(t *testing.T) {
	canned := pixel.New(4, 4)
	e := &Engine{gpu: &fixedGPU{out: canned}}

	out, err := e.Resample(gradientBuffer(16, 16), 4, 4)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if out != canned {
		t.Error("GPU path output was not returned")
	}

	stats := e.Stats()
	if stats.GPUSuccess != 1 || stats.GPUFallback != 0 {
		t.Errorf("stats = %+v, want one GPU success", stats)
	}
	if stats.GPUSuccessRate != 1.0 {
		t.Errorf("GPUSuccessRate = %v, want 1.0", stats.GPUSuccessRate)
	}
}

func TestEngineInvalidDimensions(t *testing.T) {
	e := NewEngine(Options{DisableGPU: true})

	if _, err := e.Resample(nil, 10, 10); err != ErrInvalidDimensions {
		t.Errorf("nil source error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := e.Resample(gradientBuffer(4, 4), 0, 10); err != ErrInvalidDimensions {
		t.Errorf("zero target error = %v, want ErrInvalidDimensions", err)
	}
}
