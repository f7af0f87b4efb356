package batch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // decoder for source images
	_ "golang.org/x/image/tiff" // decoder for source images
	_ "golang.org/x/image/webp" // decoder for source images

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/util/log"
	pigo "github.com/esimov/pigo/core"
	"github.com/muesli/smartcrop"
)

// Face detection thresholds for preview thumbnails.
const (
	faceDetectShift      = 0.1 // Cascade stride
	faceScaleFactor      = 1.1
	faceIoUThreshold     = 0.2  // Detection clustering
	faceDetectConfidence = 10.0 // Minimum cascade Q to count as a face
	faceDetectMinSizePct = 1    // Minimum face size as a percent of the short edge
)

// smartImageProcessor prepares images for upload and renders previews.
type smartImageProcessor struct {
	resampler imaging.ResampleFilter
	pigo      *pigo.Pigo // nil when no cascade is available
}

// NewSmartImageProcessor creates an image processor. classifier may be nil,
// which disables face-aware preview centering.
func NewSmartImageProcessor(classifier *pigo.Pigo) ImageProcessor {
	return &smartImageProcessor{
		resampler: imaging.Lanczos,
		pigo:      classifier,
	}
}

// LoadFaceClassifier reads the face cascade from the user's config directory
// and unpacks it. A missing or corrupt cascade is not fatal; previews simply
// fall back to content-aware cropping.
func LoadFaceClassifier() *pigo.Pigo {
	cascadePath := filepath.Join(config.GetPath(), "models", "facefinder")
	modelData, err := os.ReadFile(cascadePath)
	if err != nil {
		log.Printf("Warning: Failed to load face detection model: %v. Face centering will be disabled.", err)
		return nil
	}
	classifier, err := pigo.NewPigo().Unpack(modelData)
	if err != nil {
		log.Printf("Warning: Failed to unpack face detection model: %v. Face centering will be disabled.", err)
		return nil
	}
	return classifier
}

// DecodeImage decodes an image from a byte slice with context awareness.
func (sp *smartImageProcessor) DecodeImage(ctx context.Context, imgBytes []byte, contentType string) (image.Image, string, error) {
	var img image.Image
	var err error
	var ext string

	if err := checkContext(ctx); err != nil {
		return nil, "", err
	}

	switch contentType {
	case "image/png":
		img, err = png.Decode(bytes.NewReader(imgBytes))
		ext = "png"
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(imgBytes))
		ext = "jpg"
	default:
		img, ext, err = image.Decode(bytes.NewReader(imgBytes))
	}
	if err != nil {
		return nil, ext, fmt.Errorf("decoding image: %w", err)
	}

	if err := checkContext(ctx); err != nil {
		return nil, "", err
	}
	return img, ext, nil
}

// EncodeImage encodes an image to a byte slice with context awareness.
func (sp *smartImageProcessor) EncodeImage(ctx context.Context, img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	switch contentType {
	case "image/png":
		err = png.Encode(&buf, img)
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: OutputJPEGQuality})
	default:
		return nil, fmt.Errorf("unsupported format: %s", contentType)
	}

	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// PrepareUpload readies source bytes for the API: oversized images are
// downscaled to the longest-edge cap and exotic formats are transcoded to
// JPEG. Images already within the cap and in a wire-friendly format pass
// through untouched, avoiding a recompression generation.
func (sp *smartImageProcessor) PrepareUpload(ctx context.Context, imgBytes []byte, maxEdge int) ([]byte, string, error) {
	img, ext, err := sp.DecodeImage(ctx, imgBytes, "")
	if err != nil {
		return nil, "", err
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	longest := width
	if height > longest {
		longest = height
	}

	needsResize := maxEdge > 0 && longest > maxEdge
	wireFormat := ext == "jpg" || ext == "jpeg" || ext == "png" || ext == "webp"

	if !needsResize && wireFormat {
		return imgBytes, mimeTypeForExt(ext), nil
	}

	if needsResize {
		r := &resizer{resampler: sp.resampler}
		var resized image.Image
		if width >= height {
			resized = r.resizeWithContext(ctx, img, uint(maxEdge), 0)
		} else {
			resized = r.resizeWithContext(ctx, img, 0, uint(maxEdge))
		}
		if resized == nil {
			return nil, "", ctx.Err() // Context was canceled during resize.
		}
		log.Debugf("prepare upload: downscaled %dx%d to cap %d", width, height, maxEdge)
		img = resized
	}

	encoded, err := sp.EncodeImage(ctx, img, "image/jpeg")
	if err != nil {
		return nil, "", err
	}
	return encoded, "image/jpeg", nil
}

// Thumbnail produces a square preview of the image. When a face cascade is
// loaded the crop is centered on the most confident face; otherwise
// content-aware cropping picks the window.
func (sp *smartImageProcessor) Thumbnail(ctx context.Context, img image.Image, size int) (image.Image, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	type SubImager interface {
		SubImage(r image.Rectangle) image.Image
	}

	r := &resizer{resampler: sp.resampler}

	if faces := sp.detectFaces(img); len(faces) > 0 {
		best := faces[0]
		for _, f := range faces[1:] {
			if f.Q > best.Q {
				best = f
			}
		}
		crop := squareAround(img.Bounds(), best.Col, best.Row, best.Scale)
		sub, ok := img.(SubImager)
		if !ok {
			return nil, fmt.Errorf("image type %T does not support cropping", img)
		}
		resized := r.resizeWithContext(ctx, sub.SubImage(crop), uint(size), uint(size))
		if resized == nil {
			return nil, ctx.Err()
		}
		return resized, nil
	}

	analyzer := smartcrop.NewAnalyzer(r)

	// Use a goroutine and channel to make FindBestCrop context-aware.
	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult)

	go func() {
		topCrop, err := analyzer.FindBestCrop(img, size, size)
		resultChan <- cropResult{crop: topCrop, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err() // Context was canceled.
	case result := <-resultChan:
		if result.err != nil {
			return nil, fmt.Errorf("finding best crop: %w", result.err)
		}
		sub, ok := img.(SubImager)
		if !ok {
			return nil, fmt.Errorf("image type %T does not support cropping", img)
		}
		resized := r.resizeWithContext(ctx, sub.SubImage(result.crop), uint(size), uint(size))
		if resized == nil {
			return nil, ctx.Err() // Context was canceled during resize.
		}
		return resized, nil
	}
}

// detectFaces runs the cascade over the image and returns clustered
// detections above the confidence floor. Returns nil when no cascade is
// loaded.
func (sp *smartImageProcessor) detectFaces(img image.Image) []pigo.Detection {
	if sp.pigo == nil {
		return nil
	}

	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	minSize := minDim * faceDetectMinSizePct / 100
	if minSize < 20 {
		minSize = 20
	}

	cParams := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     minDim,
		ShiftFactor: faceDetectShift,
		ScaleFactor: faceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := sp.pigo.RunCascade(cParams, 0.0)
	dets = sp.pigo.ClusterDetections(dets, faceIoUThreshold)

	var faces []pigo.Detection
	for _, d := range dets {
		if d.Q >= faceDetectConfidence {
			faces = append(faces, d)
		}
	}
	return faces
}

// squareAround builds a square crop window centered on a face, clamped to
// the image bounds.
func squareAround(b image.Rectangle, cx, cy, faceSize int) image.Rectangle {
	side := faceSize * 2
	if side > b.Dx() {
		side = b.Dx()
	}
	if side > b.Dy() {
		side = b.Dy()
	}
	x0 := cx - side/2
	y0 := cy - side/2
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x0+side > b.Max.X {
		x0 = b.Max.X - side
	}
	if y0+side > b.Max.Y {
		y0 = b.Max.Y - side
	}
	return image.Rect(x0, y0, x0+side, y0+side)
}

// mimeTypeForExt maps a decoder format name to its MIME type.
func mimeTypeForExt(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}

// resizer implements the smartcrop.Resizer interface and adds context awareness.
type resizer struct {
	resampler imaging.ResampleFilter
}

// Resize doesn't take a context here. The smartcrop.Resizer interface doesn't
// support contexts; cancellation is handled in resizeWithContext.
func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// resizeWithContext performs the resize operation with context awareness.
// Passing zero for one dimension preserves the aspect ratio.
func (r *resizer) resizeWithContext(ctx context.Context, img image.Image, width, height uint) image.Image {
	resultChan := make(chan image.Image)

	go func() {
		resultChan <- imaging.Resize(img, int(width), int(height), r.resampler)
	}()

	select {
	case <-ctx.Done():
		return nil // Return nil if context is canceled.
	case result := <-resultChan:
		return result
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
