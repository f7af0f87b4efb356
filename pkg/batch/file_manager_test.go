package batch

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPathMapping(t *testing.T) {
	src := filepath.Join("data", "photos")
	fm := NewFileManager(src)

	assert.Equal(t, filepath.Join("data", "photos"), fm.SourceDir())
	assert.Equal(t, filepath.Join("data", "photos_retouched"), fm.OutputDir())

	out, err := fm.OutputPathFor(filepath.Join(src, "tower.jpg"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "photos_retouched", "tower_out.jpg"), out)

	// Extension is normalized to the output format
	out, err = fm.OutputPathFor(filepath.Join(src, "scan.png"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "photos_retouched", "scan_out.jpg"), out)
}

func TestOutputPathRejectsSuspiciousNames(t *testing.T) {
	fm := NewFileManager("photos")

	_, err := fm.OutputPathFor("tow..er.jpg")
	assert.ErrorContains(t, err, "illegal characters")
}

func TestOutputExists(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photos")
	assert.NoError(t, os.MkdirAll(src, 0755))
	fm := NewFileManager(src)
	srcPath := filepath.Join(src, "tower.jpg")

	assert.False(t, fm.OutputExists(srcPath)) // No output folder yet

	outPath, err := fm.OutputPathFor(srcPath)
	assert.NoError(t, err)
	assert.NoError(t, os.MkdirAll(fm.OutputDir(), 0755))
	assert.NoError(t, os.WriteFile(outPath, []byte{}, 0644))
	assert.False(t, fm.OutputExists(srcPath)) // Zero-byte outputs don't count

	assert.NoError(t, os.WriteFile(outPath, []byte("jpeg"), 0644))
	assert.True(t, fm.OutputExists(srcPath))
}

func TestSaveOutputCreatesDirs(t *testing.T) {
	src := filepath.Join(t.TempDir(), "photos")
	assert.NoError(t, os.MkdirAll(src, 0755))
	fm := NewFileManager(src)
	srcPath := filepath.Join(src, "tower.jpg")

	path, err := fm.SaveOutput(srcPath, []byte("retouched bytes"))
	assert.NoError(t, err)

	expected, err := fm.OutputPathFor(srcPath)
	assert.NoError(t, err)
	assert.Equal(t, expected, path)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "retouched bytes", string(data))
}

func TestGetDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")

	f, err := os.Create(path)
	assert.NoError(t, err)
	assert.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 6, 4))))
	assert.NoError(t, f.Close())

	fm := NewFileManager(dir)
	w, h, err := fm.GetDimensions(path)
	assert.NoError(t, err)
	assert.Equal(t, 6, w)
	assert.Equal(t, 4, h)
}
