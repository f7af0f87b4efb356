package transformer

import (
	"context"
	"time"
)

// Request carries one image and the instruction to apply to it.
type Request struct {
	Image    []byte        // Raw image bytes to transform
	MIMEType string        // Content type of Image (e.g., "image/jpeg")
	Prompt   string        // Instruction text sent alongside the image
	Timeout  time.Duration // Per-call deadline; zero means the backend default
}

// Result is the transformed image returned by a backend.
type Result struct {
	Image    []byte
	MIMEType string
}

// Transformer defines the interface for an image transformation backend.
type Transformer interface {
	// Name returns the backend name.
	Name() string
	// Transform sends one image with the prompt and returns the transformed
	// image. Implementations perform exactly one API call per invocation and
	// never retry; retry policy belongs to the caller.
	Transform(ctx context.Context, req Request) (*Result, error)
}

// Config carries the settings a backend needs to build its client.
type Config struct {
	APIKey  string
	Model   string        // Backend-specific model identifier; empty selects the default
	BaseURL string        // Override for the API endpoint, used by tests
	Timeout time.Duration // Default per-call deadline; zero selects the backend default
}
