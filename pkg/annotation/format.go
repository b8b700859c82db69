// Package annotation reads object-detection annotation files into per-image
// items and normalizes them into sorted, named slice groups.
//
// Three formats are supported:
//
//   - PascalVOC: one XML file per image
//   - COCO: one JSON document covering many images
//   - OpenImages: one CSV table covering many images, read as a stream
//
// A run uses exactly one format, chosen by Detect from the files present in
// the annotation directory.
package annotation

import (
	"image"
	"iter"

	"github.com/pkg/errors"

	"github.com/menta2k/image-object-slicer/pkg/types"
)

var (
	// ErrNoFiles is returned by Detect when no format finds annotation files
	ErrNoFiles = errors.New("no annotation files found")

	// ErrNoBox is returned by records that carry no usable bounding box
	ErrNoBox = errors.New("record has no bounding box")
)

// Record is one raw annotation record of a format.
type Record interface {
	// Box extracts the pixel-space box. size is the image size in pixels; it
	// is only set for formats whose NeedsImageSize is true.
	Box(size image.Point) (types.Box, error)
}

// RawItem is one image's worth of raw annotation records
type RawItem struct {
	Source  string   // annotation file the item was read from
	Image   string   // image file name, or stem for formats that only know an ID
	Records []Record
}

// Format is an annotation file format.
type Format interface {
	Name() string

	// Discover returns the annotation files of this format found in dir.
	Discover(dir string) ([]string, error)

	// Parse lazily reads the items of one annotation file. A failing file
	// yields a single error and stops.
	Parse(path string) iter.Seq2[RawItem, error]

	// ResolveImage returns the path of the source image of item.
	ResolveImage(imagesDir string, item RawItem) (string, error)

	// NeedsImageSize reports whether records need the image size to
	// produce pixel coordinates.
	NeedsImageSize() bool
}

// Formats returns all supported formats in detection order
func Formats() []Format {
	return []Format{PascalVOC{}, COCO{}, OpenImages{}}
}

// Detect returns the first format whose discovery rule finds files in dir,
// together with those files. When formats is empty, Formats() is probed.
func Detect(dir string, formats ...Format) (Format, []string, error) {
	if len(formats) == 0 {
		formats = Formats()
	}

	for _, f := range formats {
		files, err := f.Discover(dir)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to discover %s files", f.Name())
		}
		if len(files) > 0 {
			return f, files, nil
		}
	}

	return nil, nil, errors.Wrapf(ErrNoFiles, "in %s", dir)
}

// ByName returns the supported format with the given name
func ByName(name string) (Format, bool) {
	for _, f := range Formats() {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// Collect drains seq. If seq yields an error, no items are returned.
func Collect(seq iter.Seq2[RawItem, error]) ([]RawItem, error) {
	var items []RawItem
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
