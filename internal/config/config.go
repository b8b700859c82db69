package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/menta2k/image-object-slicer/pkg/annotation"
)

// Config holds the application configuration
type Config struct {
	Slicer SlicerConfig `json:"slicer"`
	Output OutputConfig `json:"output"`
}

// SlicerConfig holds configuration for the slicing pipeline
type SlicerConfig struct {
	Padding int    `json:"padding"`
	Workers int    `json:"workers"`
	Format  string `json:"format,omitempty"`
}

// OutputConfig holds configuration for output encoding
type OutputConfig struct {
	JPEGQuality  int  `json:"jpeg_quality"`
	WebPQuality  int  `json:"webp_quality"`
	WebPLossless bool `json:"webp_lossless"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Slicer: SlicerConfig{
			Padding: 0,
			Workers: 0,
		},
		Output: OutputConfig{
			JPEGQuality:  95,
			WebPQuality:  90,
			WebPLossless: false,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Slicer.Padding < 0 {
		return errors.New("slicer.padding must not be negative")
	}

	if c.Slicer.Workers < 0 {
		return errors.New("slicer.workers must not be negative")
	}

	if c.Slicer.Format != "" {
		if _, ok := annotation.ByName(c.Slicer.Format); !ok {
			return errors.Errorf("slicer.format %q is not supported", c.Slicer.Format)
		}
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return errors.New("output.jpeg_quality must be between 1 and 100")
	}

	if c.Output.WebPQuality < 0 || c.Output.WebPQuality > 100 {
		return errors.New("output.webp_quality must be between 0 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-object-slicer", "config.json")
}
