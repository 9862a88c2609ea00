package model

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"askd/internal/config"
	"askd/internal/logging"
)

func init() {
	Register("gemini", func(cfg config.ProviderConfig, systemPrompt string, log *logging.Logger) (Connector, error) {
		return NewGeminiConnector(cfg, systemPrompt, log)
	})
}

// GeminiConnector answers questions through the Google Gemini API.
type GeminiConnector struct {
	client       *genai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	log          *logging.Logger
}

// NewGeminiConnector creates a Gemini connector.
func NewGeminiConnector(cfg config.ProviderConfig, systemPrompt string, log *logging.Logger) (*GeminiConnector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if log == nil {
		log = logging.Default()
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GeminiConnector{
		client:       client,
		model:        modelName,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		log:          log.WithComponent("gemini"),
	}, nil
}

// Name identifies the provider.
func (c *GeminiConnector) Name() string { return "gemini" }

// Process sends the question and capture to Gemini and returns the raw
// response text.
func (c *GeminiConnector) Process(ctx context.Context, req Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()

	parts := []*genai.Part{genai.NewPartFromText(buildPrompt(c.systemPrompt, req))}
	if len(req.Capture) > 0 {
		mime := req.CaptureMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Capture, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}

	c.log.Info("received model response",
		"model", c.model,
		"duration", time.Since(start),
		"response_len", len(text))
	return text, nil
}
