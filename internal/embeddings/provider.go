// Package embeddings turns text into fixed-length vectors through a remote
// sentence-embedding model.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kamusis/mansh/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmptyText is returned when asked to embed blank text.
var ErrEmptyText = errors.New("cannot embed empty text")

// Known provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// openAIRequestsPerSecond paces batch requests to the hosted OpenAI API.
const openAIRequestsPerSecond = 5

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOllamaBaseURL = "http://localhost:11434/v1"
)

// Config contains the resolved embeddings configuration.
type Config struct {
	DefaultProvider string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OllamaBaseURL   string
	GeminiAPIKey    string
}

// LoadConfig resolves provider credentials from environment variables first, then ~/.mansh/.env.
func LoadConfig(defaultProvider string) (*Config, error) {
	cfg := &Config{DefaultProvider: defaultProvider}
	fields := []struct {
		key string
		dst *string
	}{
		{config.KeyOpenAIAPIKey, &cfg.OpenAIAPIKey},
		{config.KeyOpenAIBaseURL, &cfg.OpenAIBaseURL},
		{config.KeyOllamaBaseURL, &cfg.OllamaBaseURL},
		{config.KeyGeminiAPIKey, &cfg.GeminiAPIKey},
	}
	for _, f := range fields {
		v, err := config.GetConfigValue(f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = strings.TrimSpace(v)
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	if cfg.OllamaBaseURL == "" {
		cfg.OllamaBaseURL = defaultOllamaBaseURL
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ProviderOpenAI
	}
	return cfg, nil
}

// ParseModelID splits "<provider>:<model>" into its parts. Identifiers whose
// prefix is not a known provider (e.g. the Ollama tag "nomic-embed-text:latest")
// are attributed to defaultProvider as a whole.
func ParseModelID(id, defaultProvider string) (provider, model string) {
	id = strings.TrimSpace(id)
	if i := strings.Index(id, ":"); i > 0 {
		switch p := strings.ToLower(id[:i]); p {
		case ProviderOpenAI, ProviderOllama, ProviderGemini:
			return p, id[i+1:]
		}
	}
	if defaultProvider == "" {
		defaultProvider = ProviderOpenAI
	}
	return defaultProvider, id
}

// NewFromModelID reconstructs the provider for a cached model identifier.
func NewFromModelID(modelID string, cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	provider, model := ParseModelID(modelID, cfg.DefaultProvider)
	if model == "" {
		return nil, fmt.Errorf("model name is empty in %q", modelID)
	}
	switch provider {
	case ProviderOpenAI:
		return NewOpenAI(OpenAIOptions{
			Provider:   ProviderOpenAI,
			Model:      model,
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			RequireKey: true,

			RequestsPerSecond: openAIRequestsPerSecond,
		}), nil
	case ProviderOllama:
		return NewOpenAI(OpenAIOptions{
			Provider: ProviderOllama,
			Model:    model,
			BaseURL:  cfg.OllamaBaseURL,
		}), nil
	case ProviderGemini:
		return NewGemini(model, cfg.GeminiAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", provider)
	}
}
