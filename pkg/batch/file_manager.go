package batch

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// FileManager handles all file system operations for a batch run. Source
// images are never touched; outputs land in a sibling folder derived from
// the source folder name, so rescans of the source never pick them up as
// new work.
type FileManager struct {
	sourceDir string
	outputDir string
}

// NewFileManager creates a new FileManager for the given source folder.
func NewFileManager(sourceDir string) *FileManager {
	clean := filepath.Clean(sourceDir)
	return &FileManager{
		sourceDir: clean,
		outputDir: filepath.Join(filepath.Dir(clean), filepath.Base(clean)+OutputDirSuffix),
	}
}

// SourceDir returns the folder the run reads from.
func (fm *FileManager) SourceDir() string {
	return fm.sourceDir
}

// OutputDir returns the folder outputs are written to.
func (fm *FileManager) OutputDir() string {
	return fm.outputDir
}

// EnsureDirs creates the output folder if it does not exist.
func (fm *FileManager) EnsureDirs() error {
	if err := os.MkdirAll(fm.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", fm.outputDir, err)
	}
	return nil
}

// validateName ensures the name does not contain path traversal characters.
func (fm *FileManager) validateName(name string) error {
	if strings.Contains(name, "..") || strings.Contains(name, string(filepath.Separator)) {
		return fmt.Errorf("invalid file name: contains illegal characters")
	}
	return nil
}

// OutputPathFor returns the deterministic output path for a source image.
// The mapping is stable so reruns can detect already processed images.
func (fm *FileManager) OutputPathFor(sourcePath string) (string, error) {
	base := filepath.Base(sourcePath)
	if err := fm.validateName(base); err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(fm.outputDir, stem+OutputFileSuffix+OutputFileExt), nil
}

// OutputExists checks if the output for sourcePath is already on disk.
func (fm *FileManager) OutputExists(sourcePath string) bool {
	path, err := fm.OutputPathFor(sourcePath)
	if err != nil {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

// SaveOutput writes encoded image bytes for sourcePath and returns the
// output path.
func (fm *FileManager) SaveOutput(sourcePath string, data []byte) (string, error) {
	path, err := fm.OutputPathFor(sourcePath)
	if err != nil {
		return "", err
	}
	if err := fm.EnsureDirs(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return path, nil
}

// GetDimensions returns the width and height of an image file on disk.
func (fm *FileManager) GetDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	img, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return img.Width, img.Height, nil
}
