package processing

import (
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when an output extension has no encoder
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Processor handles image processing operations
type Processor struct {
	JPEGQuality  int
	WebPQuality  int
	WebPLossless bool
}

// NewProcessor creates a new image processor with default encoder settings
func NewProcessor() *Processor {
	return &Processor{
		JPEGQuality: 95,
		WebPQuality: 90,
	}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	img, openErr := imaging.Open(path)
	if openErr == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	if !isWebP(path) {
		return nil, errors.Wrapf(openErr, "failed to load image %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image file")
	}
	defer f.Close()

	img, err = webp.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode webp image %s", path)
	}
	return img, nil
}

// DecodeConfig returns the pixel dimensions of the image at path without
// decoding the pixel data.
func (p *Processor) DecodeConfig(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, errors.Wrap(err, "failed to open image file")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil && isWebP(path) {
		if _, serr := f.Seek(0, 0); serr == nil {
			cfg, err = webp.DecodeConfig(f)
		}
	}
	if err != nil {
		return image.Point{}, errors.Wrapf(err, "failed to read dimensions of %s", path)
	}
	return image.Point{X: cfg.Width, Y: cfg.Height}, nil
}

// CropImage crops img to rect, which is relative to the image origin.
// An empty intersection with the image is an error.
func (p *Processor) CropImage(img image.Image, rect image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()
	rect = rect.Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, errors.Errorf("empty crop rectangle %v", rect)
	}
	return imaging.Crop(img, rect), nil
}

// SaveImage saves an image to path, inferring the format from the extension
func (p *Processor) SaveImage(img image.Image, path string) error {
	if isWebP(path) {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		opts := &webp.Options{Lossless: p.WebPLossless, Quality: float32(p.WebPQuality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return errors.Wrapf(err, "failed to encode %s", path)
		}
		return errors.Wrap(f.Close(), "failed to close output file")
	}

	if _, err := imaging.FormatFromFilename(path); err != nil {
		return errors.Wrapf(ErrUnsupportedFormat, "cannot save %s", path)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(p.JPEGQuality)); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

func isWebP(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".webp")
}
