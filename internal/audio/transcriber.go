package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"askd/internal/config"
	"askd/internal/logging"
)

// HTTPTranscriber uploads recordings to a Whisper-style transcription
// endpoint (multipart file + model field, JSON response with a "text"
// field).
type HTTPTranscriber struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logging.Logger
}

// NewHTTPTranscriber builds a transcriber from STT settings.
func NewHTTPTranscriber(cfg config.STTConfig, log *logging.Logger) *HTTPTranscriber {
	if log == nil {
		log = logging.Default()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTranscriber{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithComponent("stt"),
	}
}

// Transcribe uploads the audio file and returns the recognized text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.url == "" {
		return "", fmt.Errorf("transcription endpoint not configured")
	}
	if t.apiKey == "" {
		return "", fmt.Errorf("transcription API key not configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy recording: %w", err)
	}
	if t.model != "" {
		_ = writer.WriteField("model", t.model)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	t.log.Info("audio transcribed", "duration", time.Since(start), "text_len", len(text))
	return text, nil
}
