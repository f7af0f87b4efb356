package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dixieflatline76/Retouch/pkg/batch"
)

// newOutputServer returns a server whose /outputs routes serve dir.
func newOutputServer(t *testing.T, dir string) *Server {
	s := NewServer(batch.NewRunStore())
	t.Cleanup(func() { _ = s.Stop() })
	s.SetOutputDirProvider(func() string { return dir })
	return s
}

func writeOutput(t *testing.T, dir, name string, data []byte) {
	assert.NoError(t, os.MkdirAll(dir, 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestOutputListing(t *testing.T) {
	outputDir := t.TempDir()
	writeOutput(t, outputDir, "b_out.jpg", []byte("image_b"))
	writeOutput(t, outputDir, "a_out.jpg", []byte("image_a"))
	writeOutput(t, outputDir, "notes.txt", []byte("not an image"))
	assert.NoError(t, os.MkdirAll(filepath.Join(outputDir, "sub"), 0755))

	s := newOutputServer(t, outputDir)

	req := httptest.NewRequest("GET", "/outputs", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var images []OutputImage
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &images))
	assert.Len(t, images, 2)

	// Sorted by name, non-outputs and folders skipped
	assert.Equal(t, "a_out.jpg", images[0].Name)
	assert.Equal(t, "b_out.jpg", images[1].Name)
	assert.Contains(t, images[0].URL, "/outputs/a_out.jpg")
	assert.Equal(t, int64(len("image_a")), images[0].Size)
}

func TestOutputListingPaging(t *testing.T) {
	outputDir := t.TempDir()
	writeOutput(t, outputDir, "a_out.jpg", []byte("a"))
	writeOutput(t, outputDir, "b_out.jpg", []byte("b"))
	writeOutput(t, outputDir, "c_out.jpg", []byte("c"))

	s := newOutputServer(t, outputDir)

	listPage := func(target string) []OutputImage {
		req := httptest.NewRequest("GET", target, nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		var images []OutputImage
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &images))
		return images
	}

	page1 := listPage("/outputs?page=1&per_page=2")
	assert.Len(t, page1, 2)
	assert.Equal(t, "a_out.jpg", page1[0].Name)

	page2 := listPage("/outputs?page=2&per_page=2")
	assert.Len(t, page2, 1)
	assert.Equal(t, "c_out.jpg", page2[0].Name)

	// Past the end is an empty page, not an error
	assert.Empty(t, listPage("/outputs?page=9&per_page=2"))
}

func TestOutputListingUnavailable(t *testing.T) {
	// No provider registered
	s := NewServer(batch.NewRunStore())
	defer s.Stop()

	req := httptest.NewRequest("GET", "/outputs", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Provider registered but the folder does not exist yet
	s2 := newOutputServer(t, filepath.Join(t.TempDir(), "missing"))
	req = httptest.NewRequest("GET", "/outputs", nil)
	rr = httptest.NewRecorder()
	s2.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestOutputAsset(t *testing.T) {
	outputDir := t.TempDir()
	writeOutput(t, outputDir, "tower_out.jpg", []byte("image_data"))

	s := newOutputServer(t, outputDir)

	req := httptest.NewRequest("GET", "/outputs/tower_out.jpg", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image_data", rr.Body.String())

	// Missing file
	req = httptest.NewRequest("GET", "/outputs/nope_out.jpg", nil)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOutputAssetRejectsTraversal(t *testing.T) {
	outputDir := t.TempDir()
	writeOutput(t, outputDir, "tower_out.jpg", []byte("image_data"))

	s := newOutputServer(t, outputDir)

	// Nested paths never resolve to assets
	req := httptest.NewRequest("GET", "/outputs/deep/tower_out.jpg", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Backslash separators are rejected before any filesystem access
	rr = httptest.NewRecorder()
	s.handleOutputAsset(rr, req, `..\secret.jpg`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
