package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/pixel"

	// Registered decoders for image.DecodeConfig and imaging.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height decoded at full
	// size. Larger images are downscaled during load.
	MaxImageDimension = 4096

	// MaxImagePixels caps total decoded pixels. 20MP is ~80MB in RGBA.
	MaxImagePixels = 20_000_000
)

// ErrUnsupportedFormat is returned for byte streams whose magic bytes do
// not match any decodable image format.
var ErrUnsupportedFormat = errors.New("media: unsupported image format")

// DetectFormat sniffs the image format from leading magic bytes. It returns
// "unknown" for unrecognized data; extensions are never consulted.
func DetectFormat(data []byte) string {
	header := data
	if len(header) > 32 {
		header = header[:32]
	}

	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return "jpeg"

	case len(header) >= 8 && header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47:
		return "png"

	case len(header) >= 4 && header[0] == 0x47 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x38:
		return "gif"

	case len(header) >= 12 && header[0] == 0x52 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x46 &&
		header[8] == 0x57 && header[9] == 0x45 && header[10] == 0x42 && header[11] == 0x50:
		return "webp"

	case len(header) >= 2 && header[0] == 0x42 && header[1] == 0x4D:
		return "bmp"

	case len(header) >= 4 && ((header[0] == 0x49 && header[1] == 0x49 && header[2] == 0x2A && header[3] == 0x00) ||
		(header[0] == 0x4D && header[1] == 0x4D && header[2] == 0x00 && header[3] == 0x2A)):
		return "tiff"

	case len(header) >= 12 && header[4] == 0x66 && header[5] == 0x74 && header[6] == 0x79 && header[7] == 0x70:
		brand := string(header[8:12])
		if brand == "heic" || brand == "heix" || brand == "hevc" || brand == "hevx" || brand == "mif1" || brand == "msf1" {
			return "heif"
		}
		if brand == "avif" || brand == "avis" {
			return "avif"
		}
		return "mp4-container"
	}

	return "unknown"
}

// decodableFormats are the formats the registered decoders handle.
var decodableFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tiff": true,
}

// DecodeBytes decodes image data into a pixel buffer, honoring EXIF
// orientation and downscaling past the size constraints. The returned
// buffer is always opaque RGBA.
func DecodeBytes(data []byte) (*pixel.Buffer, error) {
	return DecodeBytesConstrained(data, MaxImageDimension, MaxImagePixels)
}

// DecodeBytesConstrained is DecodeBytes with explicit limits, exposed for
// tests and callers with their own memory budget.
func DecodeBytesConstrained(data []byte, maxDimension, maxPixels int) (*pixel.Buffer, error) {
	if len(data) == 0 {
		metrics.DecodeFailures.Inc()
		return nil, fmt.Errorf("%w: empty data", ErrUnsupportedFormat)
	}

	format := DetectFormat(data)
	if !decodableFormats[format] {
		metrics.DecodeFailures.Inc()
		return nil, fmt.Errorf("%w: detected %q", ErrUnsupportedFormat, format)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		metrics.DecodeFailures.Inc()
		return nil, fmt.Errorf("media: decode %s: %w", format, err)
	}

	img = constrain(img, maxDimension, maxPixels)
	buf := pixel.FromImage(img)
	if buf == nil {
		metrics.DecodeFailures.Inc()
		return nil, fmt.Errorf("media: decode %s: empty image", format)
	}
	buf.ForceOpaque()
	return buf, nil
}

// Dimensions returns the encoded image's dimensions without a full decode.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("media: read dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// constrain downscales img if it exceeds either limit, preserving aspect
// ratio. Within-limit images pass through untouched.
func constrain(img image.Image, maxDimension, maxPixels int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := width * height

	if width <= maxDimension && height <= maxDimension && pixels <= maxPixels {
		return img
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	targetPixels := targetWidth * targetHeight
	if targetPixels > maxPixels {
		scale := float64(maxPixels) / float64(targetPixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	logging.Info("media: constraining large image from %dx%d to %dx%d",
		width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos)
}
