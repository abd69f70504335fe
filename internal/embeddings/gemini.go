package embeddings

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiBatchSize = 100

type geminiProvider struct {
	model  string
	apiKey string
	client *genai.Client
	dim    int
}

// NewGemini constructs a provider backed by the Gemini embedContent API.
func NewGemini(model, apiKey string) Provider {
	return &geminiProvider{model: model, apiKey: strings.TrimSpace(apiKey)}
}

func (p *geminiProvider) ModelID() string {
	return ProviderGemini + ":" + p.model
}

func (p *geminiProvider) Dim() int {
	return p.dim
}

func (p *geminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (p *geminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured (set MANSH_GEMINI_API_KEY)")
	}
	if p.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("cannot create gemini client: %w", err)
		}
		p.client = client
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchSize {
		end := min(start+geminiBatchSize, len(texts))
		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			if strings.TrimSpace(t) == "" {
				return nil, ErrEmptyText
			}
			contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: t}}})
		}
		resp, err := p.client.Models.EmbedContent(ctx, p.model, contents, &genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embed request failed: %w", err)
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(contents))
		}
		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, fmt.Errorf("gemini response missing embedding")
			}
			if p.dim == 0 {
				p.dim = len(e.Values)
			}
			if len(e.Values) != p.dim {
				return nil, fmt.Errorf("embedding dim changed mid-run: got %d want %d", len(e.Values), p.dim)
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}
