package annotation

import (
	"cmp"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/menta2k/image-object-slicer/internal/utils"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// Normalize extracts the boxes of item, sorts them left-to-right,
// top-to-bottom and names them after the image at imagePath.
//
// Records without a usable box or label are skipped and counted. The sort is
// stable on the rounded corner coordinates, so boxes with equal keys keep
// their record order. Names are {stem}-{label}-{index}.{ext} where index is
// the position after sorting.
func Normalize(item RawItem, imagePath string, size image.Point) (group types.SliceGroup, skipped int) {
	boxes := make([]types.Box, 0, len(item.Records))
	for _, rec := range item.Records {
		box, err := rec.Box(size)
		if err != nil || !finite(box) {
			skipped++
			continue
		}
		box.Label = utils.SanitizeFilename(box.Label)
		if box.Label == "" {
			skipped++
			continue
		}
		boxes = append(boxes, box)
	}

	slices.SortStableFunc(boxes, func(a, b types.Box) int {
		ka, kb := a.SortKey(), b.SortKey()
		for i := range ka {
			if c := cmp.Compare(ka[i], kb[i]); c != 0 {
				return c
			}
		}
		return 0
	})

	stem, ext := utils.SplitName(imagePath)
	names := make([]string, len(boxes))
	for i, box := range boxes {
		names[i] = sliceName(stem, box.Label, i, ext)
	}

	return types.SliceGroup{ImagePath: imagePath, Boxes: boxes, Names: names}, skipped
}

func sliceName(stem, label string, index int, ext string) string {
	if ext == "" {
		return fmt.Sprintf("%s-%s-%d", stem, label, index)
	}
	return fmt.Sprintf("%s-%s-%d.%s", stem, label, index, ext)
}

func finite(b types.Box) bool {
	for _, v := range []float64{b.XMin, b.YMin, b.XMax, b.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
