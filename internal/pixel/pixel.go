package pixel

import (
	"image"
	"image/color"
)

// Buffer is a rectangular RGBA8 pixel buffer, 4 bytes per pixel, row-major.
type Buffer struct {
	width  int
	height int
	data   []uint8
}

// New creates a zeroed buffer with the given dimensions.
// Returns nil for non-positive dimensions.
func New(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Buffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Data returns the raw RGBA pixel data. Callers must not modify it once the
// buffer has been handed to the cache.
func (b *Buffer) Data() []uint8 { return b.data }

// ByteCost returns the memory cost used for cache accounting: width*height*4.
func (b *Buffer) ByteCost() int64 {
	if b == nil {
		return 0
	}
	return int64(b.width) * int64(b.height) * 4
}

// RGBA returns the four channel values at (x, y).
// Out-of-bounds coordinates return opaque black.
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, 0, 0, 0xFF
	}
	i := (y*b.width + x) * 4
	return b.data[i], b.data[i+1], b.data[i+2], b.data[i+3]
}

// SetRGBA sets the channel values at (x, y). Out-of-bounds writes are ignored.
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	i := (y*b.width + x) * 4
	b.data[i] = r
	b.data[i+1] = g
	b.data[i+2] = bl
	b.data[i+3] = a
}

// FromImage converts any image.Image into a Buffer.
// The fast path copies image.RGBA and image.NRGBA pixel data directly.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := New(w, h)
	if buf == nil {
		return nil
	}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			copy(buf.data[y*w*4:], row)
		}
		return buf
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			copy(buf.data[y*w*4:], row)
		}
		return buf
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			buf.SetRGBA(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return buf
}

// ToImage converts the buffer into an *image.NRGBA sharing no memory with it.
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := New(b.width, b.height)
	copy(out.data, b.data)
	return out
}

// ForceOpaque sets every alpha sample to 0xFF. Thumbnail outputs are always
// fully opaque.
func (b *Buffer) ForceOpaque() {
	for i := 3; i < len(b.data); i += 4 {
		b.data[i] = 0xFF
	}
}
