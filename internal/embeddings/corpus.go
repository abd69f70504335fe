package embeddings

import (
	"context"
	"fmt"
	"strings"
)

// EmbedCorpus embeds every text in order. Blank texts are not sent to the
// provider; they get a zero vector of the model dimension instead (or an
// empty vector when the whole corpus is blank). len(result) == len(texts).
func EmbedCorpus(ctx context.Context, p Provider, texts []string) ([][]float32, error) {
	var (
		idx   []int
		batch []string
	)
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		idx = append(idx, i)
		batch = append(batch, t)
	}

	var vecs [][]float32
	if len(batch) > 0 {
		var err error
		vecs, err = p.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(batch))
		}
	}

	dim := 0
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, dim)
	}
	for j, i := range idx {
		if len(vecs[j]) != dim {
			return nil, fmt.Errorf("embedding dim changed mid-run: got %d want %d", len(vecs[j]), dim)
		}
		copy(out[i], vecs[j])
	}
	return out, nil
}
