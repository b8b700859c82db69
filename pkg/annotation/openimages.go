package annotation

import (
	"encoding/csv"
	"image"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/menta2k/image-object-slicer/internal/utils"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// ClassDescriptionsFile maps OpenImages label MIDs to display names. It is
// looked up next to each annotation file.
const ClassDescriptionsFile = "class-descriptions-boxable.csv"

var openImagesColumns = []string{"ImageID", "LabelName", "XMin", "XMax", "YMin", "YMax"}

// OpenImages reads Open Images bounding box tables. Coordinates are
// normalized to [0, 1] and converted with the image size.
type OpenImages struct{}

// openImagesRecord holds the raw coordinate columns of one row
type openImagesRecord struct {
	label                  string
	xmin, xmax, ymin, ymax string
}

func (OpenImages) Name() string { return "openimages" }

func (OpenImages) NeedsImageSize() bool { return true }

func (OpenImages) Discover(dir string) ([]string, error) {
	return utils.Glob(dir, "*-annotations-bbox.csv", "annotations/*-annotations-bbox.csv")
}

// Parse streams the table in a single pass and emits an item whenever the
// image ID changes. Rows of one image are expected to be adjacent: a later
// row for an image that was already emitted starts a new item.
func (OpenImages) Parse(path string) iter.Seq2[RawItem, error] {
	return func(yield func(RawItem, error) bool) {
		fail := func(err error) {
			yield(RawItem{}, errors.Wrapf(err, "failed to parse %s", path))
		}

		classes, err := loadClassDescriptions(filepath.Join(filepath.Dir(path), ClassDescriptionsFile))
		if err != nil {
			fail(err)
			return
		}

		f, err := os.Open(path)
		if err != nil {
			fail(err)
			return
		}
		defer f.Close()

		r := csv.NewReader(f)
		header, err := r.Read()
		if err != nil {
			fail(errors.Wrap(err, "failed to read header"))
			return
		}
		cols, err := columnIndex(header, openImagesColumns)
		if err != nil {
			fail(err)
			return
		}

		var current *RawItem
		for {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				fail(err)
				return
			}

			id := row[cols["ImageID"]]
			id = id[strings.LastIndex(id, "/")+1:]

			if current != nil && current.Image != id {
				if !yield(*current, nil) {
					return
				}
				current = nil
			}
			if current == nil {
				current = &RawItem{Source: path, Image: id}
			}

			label := row[cols["LabelName"]]
			if name, ok := classes[label]; ok {
				label = name
			}
			current.Records = append(current.Records, openImagesRecord{
				label: label,
				xmin:  row[cols["XMin"]],
				xmax:  row[cols["XMax"]],
				ymin:  row[cols["YMin"]],
				ymax:  row[cols["YMax"]],
			})
		}

		if current != nil {
			yield(*current, nil)
		}
	}
}

// ResolveImage finds the image by its ID, which carries no extension
func (OpenImages) ResolveImage(imagesDir string, item RawItem) (string, error) {
	return utils.FindImageByStem(imagesDir, item.Image)
}

// Box implements Record by scaling normalized coordinates to size
func (r openImagesRecord) Box(size image.Point) (types.Box, error) {
	if size.X <= 0 || size.Y <= 0 {
		return types.Box{}, errors.New("image size required")
	}

	var coords [4]float64
	for i, s := range []string{r.xmin, r.ymin, r.xmax, r.ymax} {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return types.Box{}, errors.Wrap(err, "invalid coordinate")
		}
		coords[i] = v
	}

	w, h := float64(size.X), float64(size.Y)
	return types.Box{
		XMin:  coords[0] * w,
		YMin:  coords[1] * h,
		XMax:  coords[2] * w,
		YMax:  coords[3] * h,
		Label: r.label,
	}, nil
}

func columnIndex(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

// loadClassDescriptions reads MID,DisplayName rows. A missing file yields an
// empty mapping.
func loadClassDescriptions(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", ClassDescriptionsFile)
	}

	classes := make(map[string]string, len(rows))
	for _, row := range rows {
		classes[row[0]] = row[1]
	}
	return classes, nil
}
