package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dixieflatline76/Retouch/util/log"
	"golang.org/x/sync/errgroup"
)

// IsProcessableImage reports whether name looks like a source image: a
// supported extension, not hidden, and not an output artifact from an
// earlier run.
func IsProcessableImage(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExtensions[ext] {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return !strings.HasSuffix(strings.ToLower(stem), OutputFileSuffix)
}

// ScanFolder returns the processable image paths directly inside dir, in
// case-insensitive lexical order. Subfolders are not descended into, so
// output folders from earlier runs never feed back into a new run.
func ScanFolder(ctx context.Context, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a folder", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", dir, err)
	}

	var (
		mu    sync.Mutex
		paths []string
	)

	// Stat candidates in parallel; network mounts make this worth bounding
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxScanWorkers)

	for _, entry := range entries {
		entry := entry // capture
		if entry.IsDir() || !IsProcessableImage(entry.Name()) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			full := filepath.Join(dir, entry.Name())
			fi, err := os.Stat(full)
			if err != nil {
				log.Printf("scan: skipping %s: %v", entry.Name(), err)
				return nil
			}
			if !fi.Mode().IsRegular() || fi.Size() == 0 {
				return nil
			}
			mu.Lock()
			paths = append(paths, full)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return strings.ToLower(paths[i]) < strings.ToLower(paths[j])
	})
	return paths, nil
}
