package annotation

import (
	"encoding/json"
	"image"
	"iter"
	"os"

	"github.com/pkg/errors"

	"github.com/menta2k/image-object-slicer/internal/utils"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// COCO reads MS COCO object detection files: one JSON document holding the
// annotations of many images.
type COCO struct{}

type cocoDocument struct {
	Images      []cocoImage      `json:"images"`
	Categories  []cocoCategory   `json:"categories"`
	Annotations []cocoAnnotation `json:"annotations"`
}

type cocoImage struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
}

type cocoCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type cocoAnnotation struct {
	ImageID    int64     `json:"image_id"`
	CategoryID int64     `json:"category_id"`
	BBox       []float64 `json:"bbox"`
}

// cocoRecord is an annotation with its category resolved
type cocoRecord struct {
	label string
	known bool
	bbox  []float64
}

func (COCO) Name() string { return "coco" }

func (COCO) NeedsImageSize() bool { return false }

func (COCO) Discover(dir string) ([]string, error) {
	return utils.Glob(dir, "*_*.json", "annotations/*_*.json")
}

// Parse buffers the whole document, then groups annotations by image in
// order of first appearance. Annotations of one image need not be adjacent.
func (COCO) Parse(path string) iter.Seq2[RawItem, error] {
	return func(yield func(RawItem, error) bool) {
		items, err := parseCOCOFile(path)
		if err != nil {
			yield(RawItem{}, errors.Wrapf(err, "failed to parse %s", path))
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (COCO) ResolveImage(imagesDir string, item RawItem) (string, error) {
	return joinImage(imagesDir, item.Image)
}

func parseCOCOFile(path string) ([]RawItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc cocoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	images := make(map[int64]string, len(doc.Images))
	for _, img := range doc.Images {
		images[img.ID] = img.FileName
	}
	categories := make(map[int64]string, len(doc.Categories))
	for _, c := range doc.Categories {
		categories[c.ID] = c.Name
	}

	var items []RawItem
	index := make(map[int64]int)
	for _, a := range doc.Annotations {
		name, ok := images[a.ImageID]
		if !ok {
			continue
		}

		i, seen := index[a.ImageID]
		if !seen {
			i = len(items)
			index[a.ImageID] = i
			items = append(items, RawItem{Source: path, Image: name})
		}

		label, known := categories[a.CategoryID]
		items[i].Records = append(items[i].Records, cocoRecord{label: label, known: known, bbox: a.BBox})
	}

	return items, nil
}

// Box implements Record with origin plus width and height
func (r cocoRecord) Box(image.Point) (types.Box, error) {
	if !r.known {
		return types.Box{}, errors.New("unknown category")
	}
	if len(r.bbox) != 4 {
		return types.Box{}, ErrNoBox
	}

	x, y, w, h := r.bbox[0], r.bbox[1], r.bbox[2], r.bbox[3]
	return types.Box{XMin: x, YMin: y, XMax: x + w, YMax: y + h, Label: r.label}, nil
}
