// Package model provides AI provider connectors for answering captured
// questions about screen content.
package model

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"askd/internal/config"
	"askd/internal/logging"
)

// defaultSystemPrompt is used when no prompt file is configured.
const defaultSystemPrompt = "You are an AI assistant that analyzes screenshots and user queries. " +
	"Provide structured responses in JSON format with speech, notes, macro, and clipboard fields."

// Request carries one question to a provider.
type Request struct {
	// Question is the transcribed user question.
	Question string

	// Capture is the screenshot image data, may be nil.
	Capture []byte

	// CaptureMIME is the image MIME type, e.g. "image/png".
	CaptureMIME string

	// History is formatted prior conversation, may be empty.
	History string
}

// Connector answers questions against captured screen content.
type Connector interface {
	// Name identifies the provider.
	Name() string

	// Process sends the request and returns the raw model response text.
	Process(ctx context.Context, req Request) (string, error)
}

// Builder constructs a Connector from provider settings.
type Builder func(cfg config.ProviderConfig, systemPrompt string, log *logging.Logger) (Connector, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Builder{}
)

// Register makes a provider available to the factory under the given
// name. Later registrations replace earlier ones.
func Register(name string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = b
}

// Registered returns the registered provider names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builderFor(name string) (Builder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[name]
	return b, ok
}

// NewFromConfig builds a connector for the configured default provider.
// If the default provider is disabled, the first enabled provider (by
// name order) is used instead.
func NewFromConfig(cfg config.ModelsConfig, log *logging.Logger) (Connector, error) {
	if log == nil {
		log = logging.Default()
	}

	name := cfg.Default
	if name == "" {
		name = "gemini"
	}

	provider, ok := cfg.Providers[name]
	if !ok || !provider.Enabled {
		fallback := firstEnabled(cfg.Providers)
		if fallback == "" {
			return nil, fmt.Errorf("no enabled model provider configured")
		}
		log.Warn("default provider unavailable, using fallback",
			"default", name, "fallback", fallback)
		name = fallback
		provider = cfg.Providers[name]
	}

	build, ok := builderFor(name)
	if !ok {
		return nil, fmt.Errorf("unsupported model provider: %s", name)
	}

	return build(provider, LoadSystemPrompt(cfg.SystemPromptFile, log), log)
}

func firstEnabled(providers map[string]config.ProviderConfig) string {
	names := make([]string, 0, len(providers))
	for name, p := range providers {
		if p.Enabled {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// LoadSystemPrompt reads the prompt file, falling back to the built-in
// prompt when the path is empty or unreadable.
func LoadSystemPrompt(path string, log *logging.Logger) string {
	if path == "" {
		return defaultSystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if log != nil {
			log.Warn("system prompt file unavailable, using default", "path", path, "error", err)
		}
		return defaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

// buildPrompt assembles the full text prompt sent alongside the capture.
func buildPrompt(systemPrompt string, req Request) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	if req.History != "" {
		b.WriteString("Previous conversation:\n")
		b.WriteString(req.History)
		b.WriteString("\n\n")
	}
	b.WriteString("User's question (referring to the attached screenshot): ")
	b.WriteString(req.Question)
	return b.String()
}
