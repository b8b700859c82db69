// Package imageslicer cuts annotated objects out of images.
//
// It reads object-detection annotations (PascalVOC XML, COCO JSON or Open
// Images CSV), normalizes them into sorted and named slice groups, and writes
// one cropped image per bounding box to {save}/{label}/{name}.
//
// Basic usage:
//
//	slicer := imageslicer.New(imageslicer.Config{Padding: 4})
//	report, err := slicer.Run(ctx, "annotations", "images", "slices")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("wrote %d slices\n", report.Crops)
//
// A run has three phases, each finishing before the next starts:
//
//  1. Parse every annotation file and normalize every image item.
//  2. Create the save directory and one directory per label.
//  3. Crop every box.
//
// Parsing and cropping run on a worker pool. A file, item or crop that fails
// is logged and skipped; only failing to create the output directories
// aborts the run.
package imageslicer

import (
	"context"
	"image"
	"io"
	"log"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/menta2k/image-object-slicer/internal/utils"
	"github.com/menta2k/image-object-slicer/internal/workerpool"
	"github.com/menta2k/image-object-slicer/pkg/annotation"
	"github.com/menta2k/image-object-slicer/pkg/cropper"
	"github.com/menta2k/image-object-slicer/pkg/processing"
	"github.com/menta2k/image-object-slicer/pkg/types"
)

// Version of the image object slicer
const Version = "1.0.0"

// ErrDuplicateOutput is recorded for a crop whose output path is already
// claimed by an earlier crop of the same run
var ErrDuplicateOutput = errors.New("output path is already written by another slice")

// Config configures a Slicer
type Config struct {
	// Padding in pixels added around every box, clamped to the image.
	Padding int
	// Workers is the pool size of each phase; zero uses the CPU count.
	Workers int
	// Format forces an annotation format by name; empty auto-detects.
	Format string
	// Processor encodes and decodes images; nil uses the defaults.
	Processor *processing.Processor
	// Logger receives progress and per-item failures; nil uses log.Default().
	Logger *log.Logger
}

// Report summarizes a run
type Report struct {
	Format          string
	AnnotationFiles int
	FailedFiles     int
	Items           int
	FailedItems     int
	SkippedRecords  int
	SliceGroups     int
	Labels          []string
	Crops           int
	FailedCrops     int
}

// Slicer runs the annotation-to-crop pipeline
type Slicer struct {
	config    Config
	processor *processing.Processor
	cropper   *cropper.Cropper
	log       *log.Logger
}

// New creates a Slicer
func New(cfg Config) *Slicer {
	p := cfg.Processor
	if p == nil {
		p = processing.NewProcessor()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Slicer{
		config:    cfg,
		processor: p,
		cropper:   cropper.New(p),
		log:       logger,
	}
}

// Quiet returns a logger that discards everything
func Quiet() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// normalized is the outcome of one normalization task
type normalized struct {
	group   types.SliceGroup
	labels  annotation.LabelSet
	skipped int
}

// Run slices every annotated object found in annotationsDir out of the
// images in imagesDir into saveDir. Finding no annotation files or no boxes
// is not an error.
func (s *Slicer) Run(ctx context.Context, annotationsDir, imagesDir, saveDir string) (Report, error) {
	var report Report

	for _, dir := range []string{annotationsDir, imagesDir} {
		if !utils.DirExists(dir) {
			return report, errors.Errorf("%s is not a directory", dir)
		}
	}

	format, files, err := s.detect(annotationsDir)
	if errors.Is(err, annotation.ErrNoFiles) {
		s.log.Printf("found no annotation files in %s", annotationsDir)
		return report, nil
	}
	if err != nil {
		return report, err
	}
	report.Format = format.Name()
	report.AnnotationFiles = len(files)
	s.log.Printf("found %d %s annotation file(s)", len(files), format.Name())

	// Parse phase
	parsed := workerpool.Run(ctx, s.config.Workers, files, func(_ context.Context, path string) ([]annotation.RawItem, error) {
		return annotation.Collect(format.Parse(path))
	})
	var items []annotation.RawItem
	for _, r := range parsed {
		if !r.OK() {
			report.FailedFiles++
			s.log.Printf("parse %s failed: %v", files[r.Index], r.Err)
			continue
		}
		items = append(items, r.Value...)
	}
	report.Items = len(items)

	normalizedItems := workerpool.Run(ctx, s.config.Workers, items, func(_ context.Context, item annotation.RawItem) (normalized, error) {
		return s.normalize(format, imagesDir, item)
	})

	var groups []types.SliceGroup
	labels := annotation.NewLabelSet()
	for _, r := range normalizedItems {
		if !r.OK() {
			report.FailedItems++
			s.log.Printf("normalize %s (%s) failed: %v", items[r.Index].Image, items[r.Index].Source, r.Err)
			continue
		}
		report.SkippedRecords += r.Value.skipped
		if r.Value.group.Len() == 0 {
			continue
		}
		groups = append(groups, r.Value.group)
		labels.Union(r.Value.labels)
	}
	report.SliceGroups = len(groups)
	report.Labels = labels.Sorted()

	if len(groups) == 0 {
		s.log.Printf("found no slices")
		return report, nil
	}

	// Directory phase
	if err := createLabelDirs(saveDir, report.Labels); err != nil {
		return report, err
	}

	// Crop phase
	tasks, duplicates := cropTasks(groups, s.config.Padding, saveDir)
	for _, task := range duplicates {
		report.FailedCrops++
		s.log.Printf("slice %s failed: %v", task.OutputPath, ErrDuplicateOutput)
	}
	cropped := workerpool.Run(ctx, s.config.Workers, tasks, func(ctx context.Context, task types.CropTask) (struct{}, error) {
		return struct{}{}, s.cropper.Crop(ctx, task)
	})
	for _, r := range cropped {
		if !r.OK() {
			report.FailedCrops++
			s.log.Printf("slice %s failed: %v", tasks[r.Index].OutputPath, r.Err)
			continue
		}
		report.Crops++
	}

	s.log.Printf("wrote %d slice(s) of %d label(s) from %d image(s) to %s (%d failed)",
		report.Crops, len(report.Labels), report.SliceGroups, saveDir, report.FailedCrops)
	return report, nil
}

func (s *Slicer) detect(dir string) (annotation.Format, []string, error) {
	if s.config.Format == "" {
		return annotation.Detect(dir)
	}
	f, ok := annotation.ByName(s.config.Format)
	if !ok {
		return nil, nil, errors.Errorf("unknown annotation format %q", s.config.Format)
	}
	return annotation.Detect(dir, f)
}

func (s *Slicer) normalize(format annotation.Format, imagesDir string, item annotation.RawItem) (normalized, error) {
	path, err := format.ResolveImage(imagesDir, item)
	if err != nil {
		return normalized{}, err
	}

	var size image.Point
	if format.NeedsImageSize() {
		if size, err = s.processor.DecodeConfig(path); err != nil {
			return normalized{}, err
		}
	}

	group, skipped := annotation.Normalize(item, path, size)
	return normalized{
		group:   group,
		labels:  annotation.NewLabelSet(group.Boxes...),
		skipped: skipped,
	}, nil
}

func createLabelDirs(saveDir string, labels []string) error {
	if err := utils.EnsureDir(saveDir); err != nil {
		return errors.Wrap(err, "failed to create save directory")
	}
	for _, label := range labels {
		if err := utils.EnsureDir(filepath.Join(saveDir, label)); err != nil {
			return errors.Wrapf(err, "failed to create directory for label %q", label)
		}
	}
	return nil
}

// cropTasks flattens groups into crop tasks. A task whose output path was
// already taken by an earlier task is returned in duplicates instead, so no
// two tasks ever write the same file.
func cropTasks(groups []types.SliceGroup, padding int, saveDir string) (tasks, duplicates []types.CropTask) {
	seen := make(map[string]bool)
	for _, g := range groups {
		for i, box := range g.Boxes {
			task := types.CropTask{
				ImagePath:  g.ImagePath,
				Box:        box,
				Padding:    padding,
				OutputPath: filepath.Join(saveDir, box.Label, g.Names[i]),
			}
			if seen[task.OutputPath] {
				duplicates = append(duplicates, task)
				continue
			}
			seen[task.OutputPath] = true
			tasks = append(tasks, task)
		}
	}
	return tasks, duplicates
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
