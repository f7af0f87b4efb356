package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/Retouch/pkg/batch"
	"github.com/dixieflatline76/Retouch/util/log"
)

// thumbSize bounds the longest edge of the report thumbnails.
const thumbSize = 480

func main() {
	folder := flag.String("folder", "", "source folder of a finished batch run")
	outDir := flag.String("out", "report_output", "directory the report is written to")
	flag.Parse()

	if *folder == "" {
		fmt.Println("Usage: go run ./cmd/util/batch_report -folder <source-folder>")
		os.Exit(1)
	}

	log.Println("Starting Batch Report Generator...")

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	fm := batch.NewFileManager(*folder)
	sources, err := batch.ScanFolder(context.Background(), *folder)
	if err != nil {
		log.Fatalf("Failed to scan %s: %v", *folder, err)
	}
	if len(sources) == 0 {
		log.Fatalf("No images found in %s", *folder)
	}

	var html strings.Builder
	html.WriteString(`<html><head><style>
		body { font-family: sans-serif; background: #222; color: #eee; padding: 20px; }
		.pair { margin-bottom: 50px; border-bottom: 1px solid #444; padding-bottom: 20px; }
		h2 { color: #f0a500; }
		.grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 10px; }
		.cell { text-align: center; }
		img { max-width: 100%; height: auto; border: 2px solid #555; }
		.label { margin-top: 5px; font-size: 0.9em; color: #aaa; }
		.meta { font-size: 0.8em; color: #777; }
		.missing { color: #ff6b6b; padding: 40px; }
	</style></head><body>`)
	html.WriteString(fmt.Sprintf(`<h1>Batch Report: %s</h1>`, filepath.Base(fm.SourceDir())))

	retouched := 0
	for _, src := range sources {
		name := filepath.Base(src)
		log.Printf("Processing %s...", name)
		html.WriteString(fmt.Sprintf(`<div class="pair"><h2>%s</h2><div class="grid">`, name))

		srcCell, err := renderCell(src, "Original", *outDir, "src")
		if err != nil {
			log.Printf("Failed to render %s: %v", src, err)
			html.WriteString(fmt.Sprintf(`<div class="cell missing">Error: %v</div>`, err))
		} else {
			html.WriteString(srcCell)
		}

		if fm.OutputExists(src) {
			outPath, _ := fm.OutputPathFor(src)
			outCell, err := renderCell(outPath, "Retouched", *outDir, "out")
			if err != nil {
				log.Printf("Failed to render %s: %v", outPath, err)
				html.WriteString(fmt.Sprintf(`<div class="cell missing">Error: %v</div>`, err))
			} else {
				html.WriteString(outCell)
				retouched++
			}
		} else {
			html.WriteString(`<div class="cell missing">No retouched output</div>`)
		}

		html.WriteString(`</div></div>`)
	}

	html.WriteString(fmt.Sprintf(`<p class="meta">%d of %d images retouched.</p>`, retouched, len(sources)))
	html.WriteString(`</body></html>`)

	reportPath := filepath.Join(*outDir, "batch_report.html")
	if err := os.WriteFile(reportPath, []byte(html.String()), 0644); err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}

	log.Printf("Report generated successfully at %s", reportPath)
}

// renderCell thumbnails the image into the report directory and returns the
// grid cell markup for it.
func renderCell(path, label, outDir, prefix string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}

	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)
	thumbName := fmt.Sprintf("%s_%s.jpg", prefix, sanitize(filepath.Base(path)))
	if err := imaging.Save(thumb, filepath.Join(outDir, thumbName)); err != nil {
		return "", err
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	return fmt.Sprintf(`
		<div class="cell">
			<img src="%s" />
			<div class="label">%s</div>
			<div class="meta">%dx%d, %d KB</div>
		</div>`, thumbName, label, img.Bounds().Dx(), img.Bounds().Dy(), size/1024), nil
}

func sanitize(s string) string {
	s = strings.TrimSuffix(s, filepath.Ext(s))
	return strings.ReplaceAll(s, " ", "_")
}
