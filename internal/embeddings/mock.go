package embeddings

import (
	"context"
	"hash/fnv"
	"math"
)

// MockProvider is a deterministic provider for tests. Texts listed in Fixed
// get that vector; every other text gets a vector derived from its hash.
type MockProvider struct {
	Model      string
	Dimensions int
	Fixed      map[string][]float32
	Err        error

	// Calls counts Embed invocations; BatchCalls counts EmbedBatch invocations;
	// Texts counts every text embedded through either method.
	Calls      int
	BatchCalls int
	Texts      int
}

// NewMockProvider returns a MockProvider producing vectors of dim dimensions.
func NewMockProvider(model string, dim int) *MockProvider {
	if dim <= 0 {
		dim = 8
	}
	return &MockProvider{Model: model, Dimensions: dim, Fixed: map[string][]float32{}}
}

func (m *MockProvider) ModelID() string { return m.Model }

func (m *MockProvider) Dim() int { return m.Dimensions }

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	return m.vector(text)
}

func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.BatchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.vector(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockProvider) vector(text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Texts++
	if v, ok := m.Fixed[text]; ok {
		return cloneVector(v), nil
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := float64(h.Sum64()%10007) + 1
	v := make([]float32, m.Dimensions)
	for i := range v {
		v[i] = float32(math.Sin(seed * float64(i+1)))
	}
	return v, nil
}
