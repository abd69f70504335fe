// Package search ranks the paragraphs of a cached manual page against a
// natural-language query.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kamusis/mansh/internal/cache"
)

// ErrEmptyQuery is returned when nothing is left of the query to embed.
var ErrEmptyQuery = errors.New("query is empty")

// Embedder embeds a single query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result holds the top paragraphs of one query, best first. Indices refer to
// positions in the cached entry; Paragraphs are the original, unnormalized
// texts.
type Result struct {
	Indices    []int
	Scores     []float64
	Paragraphs []string
}

// Len returns the number of ranked paragraphs.
func (r *Result) Len() int { return len(r.Indices) }

// Query embeds queryText and ranks the paragraphs of entry by cosine
// similarity. With stripStopwords the query and the paragraphs are normalized
// first; the cached vectors are used as stored. Paragraphs that are blank
// (after normalization) rank with the lowest score of the call. maxResults <= 0
// returns every paragraph. An entry without paragraphs yields an empty result
// for any query; otherwise a query with nothing left to embed is ErrEmptyQuery.
func Query(ctx context.Context, embedder Embedder, entry *cache.Entry, queryText string, maxResults int, stripStopwords bool) (*Result, error) {
	if entry == nil || len(entry.Paragraphs) == 0 {
		return &Result{Indices: []int{}, Scores: []float64{}, Paragraphs: []string{}}, nil
	}
	q := queryText
	if stripStopwords {
		q = Normalize(q)
	}
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	if len(entry.Vectors) != len(entry.Paragraphs) {
		return nil, fmt.Errorf("%w: %d paragraphs, %d vectors", cache.ErrVectorLengthMismatch, len(entry.Paragraphs), len(entry.Vectors))
	}

	bogus := make([]bool, len(entry.Paragraphs))
	for i, p := range entry.Paragraphs {
		if stripStopwords {
			p = Normalize(p)
		}
		bogus[i] = strings.TrimSpace(p) == ""
	}

	qv, err := embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	idx, scores, err := Rank(qv, entry.Vectors, bogus, maxResults)
	if err != nil {
		return nil, err
	}
	res := &Result{Indices: idx, Scores: scores, Paragraphs: make([]string, len(idx))}
	for i, j := range idx {
		res.Paragraphs[i] = entry.Paragraphs[j]
	}
	return res, nil
}

// Rank scores every vector against query, demotes the bogus positions to the
// minimum raw score and returns the best k indices with their scores, where
// k = min(maxResults, len(vectors)) and maxResults <= 0 means all. Equal
// scores keep ascending index order.
func Rank(query []float32, vectors [][]float32, bogus []bool, maxResults int) ([]int, []float64, error) {
	n := len(vectors)
	if n == 0 {
		return []int{}, []float64{}, nil
	}
	scores := make([]float64, n)
	minScore := 0.0
	for i, v := range vectors {
		s, err := Cosine(query, v)
		if err != nil {
			return nil, nil, fmt.Errorf("score paragraph %d: %w", i, err)
		}
		scores[i] = s
		if i == 0 || s < minScore {
			minScore = s
		}
	}
	for i := range scores {
		if i < len(bogus) && bogus[i] {
			scores[i] = minScore
		}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sortByScore(idx, scores)

	k := n
	if maxResults > 0 && maxResults < n {
		k = maxResults
	}
	idx = idx[:k]
	top := make([]float64, k)
	for i, j := range idx {
		top[i] = scores[j]
	}
	return idx, top, nil
}
