package cropper

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-object-slicer/pkg/processing"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Create a pattern with a bright subject in the center
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name    string
		box     types.Box
		padding int
		want    types.Rect
	}{
		{
			name: "inside without padding",
			box:  types.Box{XMin: 10, YMin: 20, XMax: 30, YMax: 40},
			want: types.Rect{Left: 10, Top: 20, Right: 30, Bottom: 40},
		},
		{
			name:    "padding clamped at origin",
			box:     types.Box{XMin: -5, YMin: 0, XMax: 15, YMax: 15},
			padding: 10,
			want:    types.Rect{Left: 0, Top: 0, Right: 25, Bottom: 25},
		},
		{
			name:    "padding clamped at far edge",
			box:     types.Box{XMin: 80, YMin: 90, XMax: 99, YMax: 99},
			padding: 5,
			want:    types.Rect{Left: 75, Top: 85, Right: 100, Bottom: 100},
		},
		{
			name: "fractional coordinates kept",
			box:  types.Box{XMin: 1.5, YMin: 2.25, XMax: 3.75, YMax: 4.5},
			want: types.Rect{Left: 1.5, Top: 2.25, Right: 3.75, Bottom: 4.5},
		},
		{
			name: "fully outside",
			box:  types.Box{XMin: 150, YMin: 150, XMax: 200, YMax: 200},
			want: types.Rect{Left: 100, Top: 100, Right: 100, Bottom: 100},
		},
		{
			name: "inverted box",
			box:  types.Box{XMin: 50, YMin: 50, XMax: 10, YMax: 10},
			want: types.Rect{Left: 50, Top: 50, Right: 50, Bottom: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.box, tt.padding, 100, 100))
		})
	}
}

func TestPlanClampingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	coord := func() float64 { return rng.Float64()*400 - 150 }

	for i := 0; i < 2000; i++ {
		box := types.Box{XMin: coord(), YMin: coord(), XMax: coord(), YMax: coord()}
		w, h := 1+rng.Intn(200), 1+rng.Intn(200)
		padding := rng.Intn(50)

		r := Plan(box, padding, w, h)
		require.True(t, 0 <= r.Left && r.Left <= r.Right && r.Right <= float64(w), "box %v -> %v", box, r)
		require.True(t, 0 <= r.Top && r.Top <= r.Bottom && r.Bottom <= float64(h), "box %v -> %v", box, r)
	}
}

func TestCrop(t *testing.T) {
	dir := t.TempDir()
	p := processing.NewProcessor()
	src := filepath.Join(dir, "src.png")
	require.NoError(t, p.SaveImage(createTestImage(100, 80), src))

	c := New(p)
	out := filepath.Join(dir, "out.png")
	err := c.Crop(context.Background(), types.CropTask{
		ImagePath:  src,
		Box:        types.Box{XMin: 10, YMin: 10, XMax: 40.4, YMax: 30, Label: "x"},
		Padding:    5,
		OutputPath: out,
	})
	require.NoError(t, err)

	size, err := p.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, image.Point{X: 40, Y: 30}, size)
}

func TestCropErrors(t *testing.T) {
	dir := t.TempDir()
	p := processing.NewProcessor()
	src := filepath.Join(dir, "src.png")
	require.NoError(t, p.SaveImage(createTestImage(50, 50), src))
	c := New(p)

	err := c.Crop(context.Background(), types.CropTask{
		ImagePath:  src,
		Box:        types.Box{XMin: 60, YMin: 60, XMax: 70, YMax: 70},
		OutputPath: filepath.Join(dir, "empty.png"),
	})
	assert.True(t, errors.Is(err, ErrEmptyCrop))

	err = c.Crop(context.Background(), types.CropTask{
		ImagePath:  filepath.Join(dir, "missing.png"),
		Box:        types.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10},
		OutputPath: filepath.Join(dir, "out.png"),
	})
	assert.Error(t, err)

	err = c.Crop(context.Background(), types.CropTask{
		ImagePath:  src,
		Box:        types.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10},
		OutputPath: filepath.Join(dir, "no", "such", "dir", "out.png"),
	})
	assert.Error(t, err)
}
