package cropper

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/menta2k/image-object-slicer/pkg/processing"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// ErrEmptyCrop is returned when a planned rectangle has no area
var ErrEmptyCrop = errors.New("empty crop rectangle")

// Plan computes the padded crop rectangle of box clamped to a width x height
// image. The result always satisfies 0 <= Left <= Right <= width and
// 0 <= Top <= Bottom <= height, also for boxes partly or fully outside the
// image. Degenerate boxes yield an empty rectangle.
func Plan(box types.Box, padding int, width, height int) types.Rect {
	pad := float64(padding)
	w, h := float64(width), float64(height)

	left := clamp(box.XMin-pad, 0, w)
	top := clamp(box.YMin-pad, 0, h)

	return types.Rect{
		Left:   left,
		Top:    top,
		Right:  clamp(box.XMax+pad, left, w),
		Bottom: clamp(box.YMax+pad, top, h),
	}
}

// Cropper executes crop tasks: load the source image, plan, crop and save
type Cropper struct {
	processor *processing.Processor
}

// New creates a Cropper using the given processor
func New(p *processing.Processor) *Cropper {
	return &Cropper{processor: p}
}

// Crop writes the crop described by task to task.OutputPath.
//
// Every call decodes the source image again, so an image with N boxes is
// decoded N times. Tasks stay independent of each other and no decoded image
// is held beyond a single call.
func (c *Cropper) Crop(ctx context.Context, task types.CropTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := c.processor.LoadImage(task.ImagePath)
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	rect := Plan(task.Box, task.Padding, bounds.Dx(), bounds.Dy())
	if rect.Empty() || rect.Rectangle().Empty() {
		return errors.Wrapf(ErrEmptyCrop, "box %v of %s", rect, task.ImagePath)
	}

	cropped, err := c.processor.CropImage(img, rect.Rectangle())
	if err != nil {
		return err
	}

	return c.processor.SaveImage(cropped, task.OutputPath)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
