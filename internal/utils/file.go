package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// imageExts lists the extensions tried when an image is referenced by stem only
var imageExts = []string{"jpg", "jpeg", "png", "webp", "bmp", "gif", "tif", "tiff"}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %s", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}

// SplitName splits a file name into its stem and extension (without the dot).
// The extension keeps its original case.
func SplitName(filename string) (stem, ext string) {
	base := filepath.Base(filename)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return base, ""
	}
	return base[:i], base[i+1:]
}

// FindImageByStem looks for an image named stem with any known extension in dir
func FindImageByStem(dir, stem string) (string, error) {
	for _, ext := range imageExts {
		for _, candidate := range []string{ext, strings.ToUpper(ext)} {
			path := filepath.Join(dir, stem+"."+candidate)
			if FileExists(path) {
				return path, nil
			}
		}
	}
	return "", errors.Errorf("no image found for %q in %s", stem, dir)
}

// Glob returns the regular files in dir matching any of the patterns,
// sorted and without duplicates.
func Glob(dir string, patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
		}
		for _, m := range matches {
			if seen[m] || !FileExists(m) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	// Replace invalid characters with underscores
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	result = strings.Trim(result, " .")

	return result
}
