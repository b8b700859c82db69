package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	imageslicer "github.com/menta2k/image-object-slicer"
	"github.com/menta2k/image-object-slicer/internal/config"
	"github.com/menta2k/image-object-slicer/internal/utils"
	"github.com/menta2k/image-object-slicer/internal/workerpool"
	"github.com/menta2k/image-object-slicer/pkg/processing"
)

// options are the parsed command line
type options struct {
	annotations string
	images      string
	save        string
	cfg         *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stdout, stderr)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)
	slicer := imageslicer.New(imageslicer.Config{
		Padding: opts.cfg.Slicer.Padding,
		Workers: opts.cfg.Slicer.Workers,
		Format:  opts.cfg.Slicer.Format,
		Processor: &processing.Processor{
			JPEGQuality:  opts.cfg.Output.JPEGQuality,
			WebPQuality:  opts.cfg.Output.WebPQuality,
			WebPLossless: opts.cfg.Output.WebPLossless,
		},
		Logger: logger,
	})

	if _, err := slicer.Run(ctx, opts.annotations, opts.images, opts.save); err != nil {
		logger.Print(err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stdout, stderr io.Writer) (*options, error) {
	name := "image-object-slicer"
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] annotations images save\n\n", name)
		fmt.Fprintln(fs.Output(), "Slice images using annotation files.")
		fmt.Fprintln(fs.Output(), "  annotations\tpath to the directory with the annotation files")
		fmt.Fprintln(fs.Output(), "  images\tpath to the directory with the input images")
		fmt.Fprintln(fs.Output(), "  save\t\tpath to the directory to save the image slices to")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}

	var padding, workers int
	var format, configPath string
	var version bool

	fs.IntVar(&padding, "padding", 0, "the amount of padding (in pixels) to add to each image slice")
	fs.IntVar(&padding, "p", 0, "shorthand for -padding")
	fs.IntVar(&workers, "workers", workerpool.DefaultWorkers(), "the number of parallel workers to run")
	fs.IntVar(&workers, "w", workerpool.DefaultWorkers(), "shorthand for -workers")
	fs.StringVar(&format, "format", "", "annotation format: pascalvoc|coco|openimages (default: detect)")
	fs.StringVar(&configPath, "config", "", "path to a JSON config file (default: "+config.GetConfigPath()+" if present)")
	fs.BoolVar(&version, "version", false, "print the version and exit")
	fs.BoolVar(&version, "v", false, "shorthand for -version")

	// Flags may follow the positional arguments, until a "--"
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			positional = append(positional, rest...)
			break
		}
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}

	if version {
		fmt.Fprintf(stdout, "%s %s\n", name, imageslicer.Version)
		return nil, flag.ErrHelp
	}
	if len(positional) != 3 {
		fs.Usage()
		return nil, fmt.Errorf("expected 3 arguments, got %d", len(positional))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Explicit flags override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "padding", "p":
			cfg.Slicer.Padding = padding
		case "workers", "w":
			cfg.Slicer.Workers = workers
		case "format":
			cfg.Slicer.Format = format
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &options{
		annotations: filepath.Clean(positional[0]),
		images:      filepath.Clean(positional[1]),
		save:        filepath.Clean(positional[2]),
		cfg:         cfg,
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		return config.LoadFromFile(def)
	}
	return config.Default(), nil
}
