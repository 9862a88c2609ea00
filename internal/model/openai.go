package model

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"askd/internal/config"
	"askd/internal/logging"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

func init() {
	Register("openai", func(cfg config.ProviderConfig, systemPrompt string, log *logging.Logger) (Connector, error) {
		return NewOpenAIConnector(cfg, systemPrompt, log)
	})
}

// OpenAIConnector answers questions through the OpenAI chat
// completions API.
type OpenAIConnector struct {
	apiKey       string
	baseURL      string
	model        string
	systemPrompt string
	httpClient   *http.Client
	log          *logging.Logger
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIConnector creates an OpenAI connector.
func NewOpenAIConnector(cfg config.ProviderConfig, systemPrompt string, log *logging.Logger) (*OpenAIConnector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}
	if log == nil {
		log = logging.Default()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIConnector{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		model:        modelName,
		systemPrompt: systemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log.WithComponent("openai"),
	}, nil
}

// Name identifies the provider.
func (c *OpenAIConnector) Name() string { return "openai" }

// Process sends the question and capture to OpenAI and returns the raw
// response text.
func (c *OpenAIConnector) Process(ctx context.Context, req Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	start := time.Now()

	messages := []openAIMessage{
		{Role: "system", Content: c.systemPrompt},
	}
	if req.History != "" {
		messages = append(messages, openAIMessage{
			Role:    "system",
			Content: "Context: Previous conversation:\n" + req.History,
		})
	}

	userParts := []openAIContentPart{
		{Type: "text", Text: "User's question (referring to the attached screenshot): " + req.Question},
	}
	if len(req.Capture) > 0 {
		mime := req.CaptureMIME
		if mime == "" {
			mime = "image/png"
		}
		userParts = append(userParts, openAIContentPart{
			Type: "image_url",
			ImageURL: &openAIImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(req.Capture)),
				Detail: "high",
			},
		})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: userParts})

	body, err := json.Marshal(openAIRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	c.log.Info("received model response",
		"model", c.model,
		"duration", time.Since(start),
		"response_len", len(text))
	return text, nil
}
