package annotation

import (
	"encoding/xml"
	"image"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"

	"github.com/menta2k/image-object-slicer/internal/utils"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// PascalVOC reads one XML annotation file per image
type PascalVOC struct{}

type vocAnnotation struct {
	XMLName  xml.Name    `xml:"annotation"`
	Filename string      `xml:"filename"`
	Objects  []vocObject `xml:"object"`
}

type vocObject struct {
	Name   string     `xml:"name"`
	BndBox *vocBndBox `xml:"bndbox"`
}

// Coordinates are kept as text so a bad value only invalidates its object.
type vocBndBox struct {
	XMin string `xml:"xmin"`
	YMin string `xml:"ymin"`
	XMax string `xml:"xmax"`
	YMax string `xml:"ymax"`
}

func (PascalVOC) Name() string { return "pascalvoc" }

func (PascalVOC) NeedsImageSize() bool { return false }

func (PascalVOC) Discover(dir string) ([]string, error) {
	return utils.Glob(dir, "*.xml")
}

func (PascalVOC) Parse(path string) iter.Seq2[RawItem, error] {
	return func(yield func(RawItem, error) bool) {
		item, err := parseVOCFile(path)
		if err != nil {
			yield(RawItem{}, errors.Wrapf(err, "failed to parse %s", path))
			return
		}
		yield(item, nil)
	}
}

func (PascalVOC) ResolveImage(imagesDir string, item RawItem) (string, error) {
	return joinImage(imagesDir, item.Image)
}

func parseVOCFile(path string) (RawItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawItem{}, err
	}
	defer f.Close()

	// Labeling tools often write Latin-1 headers
	dec := xml.NewDecoder(f)
	dec.CharsetReader = charset.NewReaderLabel

	var doc vocAnnotation
	if err := dec.Decode(&doc); err != nil {
		return RawItem{}, err
	}

	filename := strings.TrimSpace(doc.Filename)
	if filename == "" {
		return RawItem{}, errors.New("missing <filename>")
	}
	if _, ext := utils.SplitName(filename); ext == "" {
		return RawItem{}, errors.Errorf("image filename %q has no extension", filename)
	}

	records := make([]Record, len(doc.Objects))
	for i, obj := range doc.Objects {
		records[i] = obj
	}

	return RawItem{Source: path, Image: filename, Records: records}, nil
}

// Box implements Record with explicit corner coordinates
func (o vocObject) Box(image.Point) (types.Box, error) {
	if o.BndBox == nil {
		return types.Box{}, ErrNoBox
	}

	var coords [4]float64
	for i, s := range []string{o.BndBox.XMin, o.BndBox.YMin, o.BndBox.XMax, o.BndBox.YMax} {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return types.Box{}, errors.Wrap(err, "invalid bndbox coordinate")
		}
		coords[i] = v
	}

	return types.Box{
		XMin:  coords[0],
		YMin:  coords[1],
		XMax:  coords[2],
		YMax:  coords[3],
		Label: strings.TrimSpace(o.Name),
	}, nil
}

// joinImage joins a referenced image file name to the image directory.
// Only the base name is used so annotations cannot point outside imagesDir.
func joinImage(imagesDir, name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(name))
	if _, ext := utils.SplitName(base); ext == "" {
		return "", errors.Errorf("image filename %q has no extension", name)
	}
	return filepath.Join(imagesDir, base), nil
}
