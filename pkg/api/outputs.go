package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dixieflatline76/Retouch/pkg/batch"
)

// resolveOutputDir returns the absolute, cleaned output folder, or an error
// when no provider is registered or no folder is available yet.
func (s *Server) resolveOutputDir() (string, error) {
	if s.outputDir == nil {
		return "", fmt.Errorf("no output folder provider registered")
	}
	dir := s.outputDir()
	if dir == "" {
		return "", fmt.Errorf("no output folder available")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid output folder: %w", err)
	}
	return filepath.Clean(absDir), nil
}

// handleOutputs routes requests for the retouched output gallery.
// Supported patterns:
// 1. list: /outputs?page=1&per_page=24
// 2. asset: /outputs/{filename}
func (s *Server) handleOutputs(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/outputs")
	rest = strings.TrimPrefix(rest, "/")

	if rest == "" {
		s.handleOutputListing(w, r)
		return
	}

	// Asset names are a single path component
	if strings.Contains(rest, "/") {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	s.handleOutputAsset(w, r, rest)
}

// OutputImage is one retouched file in the outputs listing.
type OutputImage struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func (s *Server) handleOutputListing(w http.ResponseWriter, r *http.Request) {
	outputDir, err := s.resolveOutputDir()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	// Paging params
	pageStr := r.URL.Query().Get("page")
	perPageStr := r.URL.Query().Get("per_page")

	page := 1
	perPage := 24

	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
		perPage = pp
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			// The folder appears once the first output is written
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]OutputImage{})
			return
		}
		http.Error(w, "Failed to read output folder", http.StatusInternalServerError)
		return
	}

	// Only finished retouch outputs are listed
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.EqualFold(filepath.Ext(name), batch.OutputFileExt) {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	// Slice page
	start := (page - 1) * perPage
	end := start + perPage

	if start >= len(names) {
		start = len(names) // Empty
	}
	if end > len(names) {
		end = len(names)
	}

	pageNames := names[start:end]

	// Map to response
	host := r.Host
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	result := make([]OutputImage, 0, len(pageNames))
	for _, name := range pageNames {
		img := OutputImage{
			Name: name,
			URL:  fmt.Sprintf("%s://%s/outputs/%s", scheme, host, name),
		}
		if info, err := os.Stat(filepath.Join(outputDir, name)); err == nil {
			img.Size = info.Size()
			img.Modified = info.ModTime()
		}
		result = append(result, img)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (s *Server) handleOutputAsset(w http.ResponseWriter, r *http.Request, filename string) {
	// Security: validate filename - must be a single path component with no traversal
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}
	if filepath.Base(filename) != filename {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	outputDir, err := s.resolveOutputDir()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	// Double-check containment using absolute, cleaned paths
	fullPath := filepath.Join(outputDir, filename)
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		http.Error(w, "Invalid asset path", http.StatusBadRequest)
		return
	}
	absFullPath = filepath.Clean(absFullPath)

	// Ensure prefix check includes separator to prevent partial name matching
	prefix := outputDir
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	if !strings.HasPrefix(absFullPath, prefix) {
		http.Error(w, "Invalid asset path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, absFullPath)
}
