package types

import (
	"image"
	"math"
)

// Box represents an axis-aligned bounding box in source image pixel coordinates
type Box struct {
	XMin  float64 `json:"xmin"`
	YMin  float64 `json:"ymin"`
	XMax  float64 `json:"xmax"`
	YMax  float64 `json:"ymax"`
	Label string  `json:"label"`
}

// SortKey returns the rounded corner coordinates used to order boxes
// left-to-right, top-to-bottom.
func (b Box) SortKey() [4]int {
	return [4]int{Round(b.XMin), Round(b.YMin), Round(b.XMax), Round(b.YMax)}
}

// SliceGroup holds all boxes of one source image, sorted and named.
// Names[i] is the output file name of Boxes[i].
type SliceGroup struct {
	ImagePath string   `json:"image_path"`
	Boxes     []Box    `json:"boxes"`
	Names     []string `json:"names"`
}

// Len returns the number of boxes in the group
func (g SliceGroup) Len() int {
	return len(g.Boxes)
}

// CropTask is the unit of work of the cropping phase
type CropTask struct {
	ImagePath  string
	Box        Box
	Padding    int
	OutputPath string
}

// Rect is a planned crop rectangle. Coordinates stay real-valued until the
// crop primitive is called.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Rectangle converts r to integer pixel bounds using Round on every edge
func (r Rect) Rectangle() image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: Round(r.Left), Y: Round(r.Top)},
		Max: image.Point{X: Round(r.Right), Y: Round(r.Bottom)},
	}
}

// Round rounds half to even. It is the only rounding rule used for sort keys
// and crop bounds.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}
