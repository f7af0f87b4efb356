// Package gemini implements the image transformer backend for the Google
// Gemini API.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	_ "image/jpeg" // decoder for response validation
	_ "image/png"  // decoder for response validation

	_ "golang.org/x/image/webp" // decoder for response validation

	"github.com/dixieflatline76/Retouch/pkg/transformer"
	"github.com/dixieflatline76/Retouch/util"
	"github.com/dixieflatline76/Retouch/util/log"
	"google.golang.org/genai"
)

// Name is the registry name of this backend.
const Name = "gemini"

// DefaultModel is the image output model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image-preview"

// defaultTimeout bounds a single GenerateContent call. Image output models
// routinely run for over a minute per request.
const defaultTimeout = 120 * time.Second

func init() {
	transformer.Register(Name, New)
}

// Client transforms images through the Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// New creates a Gemini-backed transformer from cfg. The API key must be set.
func New(cfg transformer.Config) (transformer.Transformer, error) {
	if cfg.APIKey == "" {
		return nil, &transformer.AuthError{Reason: "API key is not configured"}
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Name returns the backend name.
func (c *Client) Name() string {
	return Name
}

// Transform sends the image and prompt to the model in a single
// GenerateContent call and returns the image part of the first candidate.
// Failures are classified into the typed taxonomy; no retries happen here.
func (c *Client) Transform(ctx context.Context, req transformer.Request) (*transformer.Result, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("no image data to transform")
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt text is empty")
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: req.Image, MIMEType: mimeType}},
		{Text: req.Prompt},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		{Parts: parts},
	}, nil)
	if err != nil {
		return nil, transformer.Classify(err)
	}

	data, dataMIME, err := extractImage(result)
	if err != nil {
		return nil, err
	}

	// The model occasionally returns bytes that claim to be an image but do
	// not parse. Validate the header before handing them to the caller.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, &transformer.InvalidResponseError{Reason: fmt.Sprintf("image data does not decode: %v", err)}
	}

	log.Debugf("gemini: transform returned %d bytes (%s)", len(data), dataMIME)
	return &transformer.Result{Image: data, MIMEType: dataMIME}, nil
}

// extractImage walks the first candidate for an inline image part.
func extractImage(result *genai.GenerateContentResponse) ([]byte, string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, "", &transformer.InvalidResponseError{Reason: "no candidates in response"}
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, "", &transformer.InvalidResponseError{Reason: "no content in candidate"}
	}

	var refusal string
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
		if part.Text != "" {
			// Safety refusals and clarifying questions arrive as text parts.
			refusal = part.Text
		}
	}

	if refusal != "" {
		return nil, "", &transformer.InvalidResponseError{Reason: fmt.Sprintf("model returned text instead of an image: %s", util.Truncate(refusal, 200))}
	}
	return nil, "", &transformer.InvalidResponseError{Reason: "no image data found in response"}
}
