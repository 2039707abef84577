package resample

import (
	"errors"
	"math"

	"photo-pipeline/internal/pixel"
)

// ErrInvalidDimensions is returned for zero or negative source/target sizes.
// Callers surface it as "thumbnail unavailable"; it never escalates further.
var ErrInvalidDimensions = errors.New("resample: invalid image dimensions")

// Resampler scales a source buffer to the target dimensions using
// aspect-fill semantics.
type Resampler interface {
	Resample(src *pixel.Buffer, targetWidth, targetHeight int) (*pixel.Buffer, error)
}

// FillScale returns the aspect-fill scale factor: the larger of the two axis
// ratios, guaranteeing the scaled source covers the entire target rectangle.
func FillScale(srcW, srcH, dstW, dstH int) float64 {
	return math.Max(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
}

// cropOffset returns the centered crop offset in target space for one axis.
func cropOffset(srcDim int, scale float64, dstDim int) float64 {
	return (float64(srcDim)*scale - float64(dstDim)) / 2
}

// CPU is the sequential rasterizer. It is the reference implementation: the
// GPU kernel mirrors its arithmetic exactly, modulo float rounding.
type CPU struct{}

// Resample implements Resampler using center-crop bilinear sampling.
func (CPU) Resample(src *pixel.Buffer, targetWidth, targetHeight int) (*pixel.Buffer, error) {
	if src == nil || src.Width() <= 0 || src.Height() <= 0 || targetWidth <= 0 || targetHeight <= 0 {
		return nil, ErrInvalidDimensions
	}

	srcW, srcH := src.Width(), src.Height()
	scale := FillScale(srcW, srcH, targetWidth, targetHeight)
	offX := cropOffset(srcW, scale, targetWidth)
	offY := cropOffset(srcH, scale, targetHeight)

	dst := pixel.New(targetWidth, targetHeight)
	srcData := src.Data()
	dstData := dst.Data()

	for y := 0; y < targetHeight; y++ {
		sy := (float64(y) + offY) / scale
		fy := math.Floor(sy - 0.5)
		ty := sy - 0.5 - fy
		y0 := clampIndex(int(fy), srcH)
		y1 := clampIndex(int(fy)+1, srcH)

		for x := 0; x < targetWidth; x++ {
			sx := (float64(x) + offX) / scale
			fx := math.Floor(sx - 0.5)
			tx := sx - 0.5 - fx
			x0 := clampIndex(int(fx), srcW)
			x1 := clampIndex(int(fx)+1, srcW)

			i00 := (y0*srcW + x0) * 4
			i10 := (y0*srcW + x1) * 4
			i01 := (y1*srcW + x0) * 4
			i11 := (y1*srcW + x1) * 4

			di := (y*targetWidth + x) * 4
			for c := 0; c < 3; c++ {
				top := lerp(float64(srcData[i00+c]), float64(srcData[i10+c]), tx)
				bot := lerp(float64(srcData[i01+c]), float64(srcData[i11+c]), tx)
				dstData[di+c] = quantize(lerp(top, bot, ty))
			}
			dstData[di+3] = 0xFF
		}
	}

	return dst, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// quantize rounds a channel value the same way the GPU kernel does:
// add 0.5, clamp, truncate.
func quantize(v float64) uint8 {
	v += 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
