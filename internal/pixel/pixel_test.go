package pixel

import (
	"image"
	"image/color"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantNil bool
	}{
		{"valid dimensions", 4, 3, false},
		{"single pixel", 1, 1, false},
		{"zero width", 0, 3, true},
		{"zero height", 4, 0, true},
		{"negative width", -1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := New(tt.width, tt.height)
			if (buf == nil) != tt.wantNil {
				t.Fatalf("New(%d, %d) = %v, wantNil=%v", tt.width, tt.height, buf, tt.wantNil)
			}
			if buf == nil {
				return
			}
			if buf.Width() != tt.width || buf.Height() != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", buf.Width(), buf.Height(), tt.width, tt.height)
			}
			if got := len(buf.Data()); got != tt.width*tt.height*4 {
				t.Errorf("data length = %d, want %d", got, tt.width*tt.height*4)
			}
		})
	}
}

func TestByteCost(t *testing.T) {
	buf := New(10, 20)
	if got := buf.ByteCost(); got != 800 {
		t.Errorf("ByteCost() = %d, want 800", got)
	}

	var nilBuf *Buffer
	if got := nilBuf.ByteCost(); got != 0 {
		t.Errorf("nil ByteCost() = %d, want 0", got)
	}
}

func TestSetGetRGBA(t *testing.T) {
	buf := New(2, 2)
	buf.SetRGBA(1, 0, 10, 20, 30, 40)

	r, g, b, a := buf.RGBA(1, 0)
	if r != 10 || g != 20 || b != 30 || a != 40 {
		t.Errorf("RGBA(1,0) = %d,%d,%d,%d, want 10,20,30,40", r, g, b, a)
	}

	// Out-of-bounds reads are opaque black, writes are ignored
	buf.SetRGBA(5, 5, 1, 2, 3, 4)
	r, g, b, a = buf.RGBA(5, 5)
	if r != 0 || g != 0 || b != 0 || a != 0xFF {
		t.Errorf("out-of-bounds RGBA = %d,%d,%d,%d, want opaque black", r, g, b, a)
	}
}

func TestFromImageRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{R: 0, G: 128, B: 64, A: 200})

	buf := FromImage(img)
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Fatalf("dimensions = %dx%d, want 3x2", buf.Width(), buf.Height())
	}

	r, g, b, a := buf.RGBA(0, 0)
	if r != 255 || g != 0 || b != 0 || a != 255 {
		t.Errorf("pixel (0,0) = %d,%d,%d,%d", r, g, b, a)
	}
	r, g, b, a = buf.RGBA(2, 1)
	if r != 0 || g != 128 || b != 64 || a != 200 {
		t.Errorf("pixel (2,1) = %d,%d,%d,%d", r, g, b, a)
	}

	back := buf.ToImage()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if back.NRGBAAt(x, y) != img.NRGBAAt(x, y) {
				t.Errorf("round trip mismatch at (%d,%d)", x, y)
			}
		}
	}
}

func TestFromImageNonZeroOrigin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	img.SetNRGBA(5, 5, color.NRGBA{R: 42, A: 255})

	buf := FromImage(img)
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Fatalf("dimensions = %dx%d, want 3x2", buf.Width(), buf.Height())
	}
	r, _, _, _ := buf.RGBA(0, 0)
	if r != 42 {
		t.Errorf("origin pixel R = %d, want 42", r)
	}
}

func TestClone(t *testing.T) {
	buf := New(2, 2)
	buf.SetRGBA(0, 0, 1, 2, 3, 4)

	clone := buf.Clone()
	clone.SetRGBA(0, 0, 9, 9, 9, 9)

	r, _, _, _ := buf.RGBA(0, 0)
	if r != 1 {
		t.Error("Clone() shares memory with the original")
	}
}

func TestForceOpaque(t *testing.T) {
	buf := New(2, 1)
	buf.SetRGBA(0, 0, 1, 2, 3, 0)
	buf.SetRGBA(1, 0, 4, 5, 6, 100)

	buf.ForceOpaque()

	for x := 0; x < 2; x++ {
		if _, _, _, a := buf.RGBA(x, 0); a != 0xFF {
			t.Errorf("alpha at (%d,0) = %d, want 255", x, a)
		}
	}
}
