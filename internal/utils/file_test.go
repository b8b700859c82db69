package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))

	// Idempotent
	require.NoError(t, EnsureDir(dir))

	file := filepath.Join(t.TempDir(), "file")
	touch(t, file)
	assert.Error(t, EnsureDir(file), "a regular file in the way must fail")
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, stem, ext string
	}{
		{"cat.jpg", "cat", "jpg"},
		{"/data/images/my.cat.PNG", "my.cat", "PNG"},
		{"noext", "noext", ""},
	}
	for _, tt := range tests {
		stem, ext := SplitName(tt.in)
		assert.Equal(t, tt.stem, stem, tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
	}
}

func TestFindImageByStem(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "abc.png"))
	touch(t, filepath.Join(dir, "up.JPG"))

	path, err := FindImageByStem(dir, "abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.png"), path)

	path, err = FindImageByStem(dir, "up")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "up.JPG"), path)

	_, err = FindImageByStem(dir, "missing")
	assert.Error(t, err)
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xml"))
	touch(t, filepath.Join(dir, "a.xml"))
	touch(t, filepath.Join(dir, "c.json"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.xml"), 0755))

	files, err := Glob(dir, "*.xml", "a.*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.xml"), filepath.Join(dir, "b.xml")}, files)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "_m_01g317", SanitizeFilename("/m/01g317"))
	assert.Equal(t, "cat", SanitizeFilename(" cat. "))
	assert.Equal(t, "a_b", SanitizeFilename("a:b"))
}
