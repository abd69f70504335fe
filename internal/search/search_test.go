package search

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/mansh/internal/cache"
	"github.com/kamusis/mansh/internal/embeddings"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                                  "",
		"   \n\t ":                          "",
		"how to list all the hidden files":  "list hidden files",
		"sort  lines\nin   reverse":         "sort lines reverse",
		"The file":                          "The file",
		"-a, --all\n    do not ignore them": "-a, --all ignore",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "%q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{
		"how to list all the hidden files",
		"  The quick brown fox jumps over the lazy dog  ",
		"-r, --reverse\n\treverse the result of comparisons",
		"a an the",
	} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "%q", in)
	}
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.True(t, IsStopWord("how"))
	assert.False(t, IsStopWord("The"))
	assert.False(t, IsStopWord("files"))
}

func TestCosine(t *testing.T) {
	s, err := Cosine([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s, 1e-9)

	s, err = Cosine([]float32{1, 0}, []float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)

	s, err = Cosine([]float32{1, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)

	_, err = Cosine([]float32{1, 0}, []float32{1, 0, 0})
	require.ErrorIs(t, err, ErrVectorLengthMismatch)
}

func TestRank_OrderAndTies(t *testing.T) {
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{1, 1},
		{1, 0},
	}
	idx, scores, err := Rank([]float32{1, 0}, vectors, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2, 0}, idx)
	require.Len(t, scores, 4)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1], scores[i])
	}

	idx, scores, err = Rank([]float32{1, 0}, vectors, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, idx)
	assert.Len(t, scores, 2)

	idx, _, err = Rank([]float32{1, 0}, vectors, nil, 10)
	require.NoError(t, err)
	assert.Len(t, idx, 4)
}

func TestRank_DemotesBogusToMinimum(t *testing.T) {
	vectors := [][]float32{
		{1, 0},  // bogus but a perfect match
		{0, 1},  // orthogonal: raw minimum 0
		{1, 1},  // ~0.707
		{-1, 0}, // opposite: raw minimum -1
	}
	bogus := []bool{true, false, false, false}
	idx, scores, err := Rank([]float32{1, 0}, vectors, bogus, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0, 3}, idx)
	assert.InDelta(t, -1.0, scores[2], 1e-9)
	assert.InDelta(t, -1.0, scores[3], 1e-9)
}

func TestRank_Empty(t *testing.T) {
	idx, scores, err := Rank([]float32{1}, nil, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, idx)
	assert.Empty(t, scores)
}

func TestQuery_SortOrderScenario(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 2)
	m.Fixed["Lists files."] = []float32{1, 0}
	m.Fixed["Sorts alphabetically."] = []float32{0, 1}
	m.Fixed["sort order"] = []float32{-1, 1}

	paragraphs := []string{"Lists files.", "", "Sorts alphabetically."}
	vectors, err := embeddings.EmbedCorpus(context.Background(), m, paragraphs)
	require.NoError(t, err)
	entry := &cache.Entry{Delimiter: "\n\n", Paragraphs: paragraphs, Vectors: vectors}

	res, err := Query(context.Background(), m, entry, "sort order", 2, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, res.Indices)
	assert.Equal(t, "Sorts alphabetically.", res.Paragraphs[0])

	all, err := Query(context.Background(), m, entry, "sort order", 0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, all.Indices, "the empty paragraph ties with the minimum and loses on index")
}

func TestRank_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(12)
		dim := 1 + rng.Intn(4)
		vectors := make([][]float32, n)
		bogus := make([]bool, n)
		for i := range vectors {
			vectors[i] = make([]float32, dim)
			for j := range vectors[i] {
				vectors[i][j] = float32(rng.NormFloat64())
			}
			bogus[i] = rng.Intn(4) == 0
		}
		query := make([]float32, dim)
		for j := range query {
			query[j] = float32(rng.NormFloat64())
		}
		k := rng.Intn(15) - 2

		idx, scores, err := Rank(query, vectors, bogus, k)
		require.NoError(t, err)

		want := n
		if k > 0 && k < n {
			want = k
		}
		require.Len(t, idx, want)
		require.Len(t, scores, want)

		seen := map[int]bool{}
		for _, i := range idx {
			require.True(t, i >= 0 && i < n)
			require.False(t, seen[i], "duplicate index %d", i)
			seen[i] = true
		}

		raw := func(i int) float64 {
			s, err := Cosine(query, vectors[i])
			require.NoError(t, err)
			return s
		}
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				i, j := idx[a], idx[b]
				if !bogus[i] && !bogus[j] {
					assert.GreaterOrEqual(t, raw(i), raw(j), "non-bogus order follows raw scores")
				}
				if bogus[i] && !bogus[j] {
					assert.Equal(t, scores[a], scores[b], "a bogus paragraph only precedes a genuine one on a tie")
				}
			}
		}
	}
}

func lsEntry() *cache.Entry {
	return &cache.Entry{
		Delimiter: "\n\n",
		Paragraphs: []string{
			"LS(1) User Commands",
			"",
			"-a, --all\n    do not ignore entries starting with .",
			"-l     use a long listing format",
			"the of and",
		},
		Vectors: [][]float32{
			{0.2, 0.1, 0.9},
			{0, 0, 0},
			{0.9, 0.1, 0.1},
			{0.1, 0.9, 0.1},
			{1, 0, 0},
		},
	}
}

func TestQuery_ListHiddenFiles(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 3)
	m.Fixed["list hidden files"] = []float32{1, 0, 0}

	res, err := Query(context.Background(), m, lsEntry(), "how to list all the hidden files", 2, true)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, 2, res.Indices[0])
	assert.Equal(t, "-a, --all\n    do not ignore entries starting with .", res.Paragraphs[0])
	assert.Equal(t, "ls -a", SuggestCommand("ls", res.Paragraphs[0]))
	assert.NotContains(t, res.Indices, 1)
	assert.NotContains(t, res.Indices, 4, "a paragraph made only of stop words is demoted")
}

func TestQuery_WithoutStripKeepsStopWordParagraph(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 3)
	m.Fixed["how to list all the hidden files"] = []float32{1, 0, 0}

	res, err := Query(context.Background(), m, lsEntry(), "how to list all the hidden files", 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, res.Indices)
	assert.Equal(t, "the of and", res.Paragraphs[0])
}

func TestQuery_AllResultsAndBogusLast(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 3)
	m.Fixed["hidden"] = []float32{1, 0, 0}

	res, err := Query(context.Background(), m, lsEntry(), "hidden", 0, true)
	require.NoError(t, err)
	require.Equal(t, 5, res.Len())
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, res.Indices)
	last := res.Scores[len(res.Scores)-1]
	for i, j := range res.Indices {
		if j == 1 || j == 4 {
			assert.Equal(t, last, res.Scores[i])
		}
	}
}

func TestQuery_Errors(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 3)

	_, err := Query(context.Background(), m, lsEntry(), "the of", 3, true)
	require.ErrorIs(t, err, ErrEmptyQuery)

	_, err = Query(context.Background(), m, lsEntry(), "   ", 3, false)
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, 0, m.Calls)

	m.Err = errors.New("offline")
	_, err = Query(context.Background(), m, lsEntry(), "hidden", 3, false)
	require.ErrorContains(t, err, "offline")

	bad := lsEntry()
	bad.Vectors = bad.Vectors[:2]
	m.Err = nil
	_, err = Query(context.Background(), m, bad, "hidden", 3, false)
	require.ErrorIs(t, err, cache.ErrVectorLengthMismatch)
}

func TestQuery_EmptyEntry(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 3)
	res, err := Query(context.Background(), m, &cache.Entry{}, "hidden", 3, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, m.Calls)
}

func TestQuery_EmptyEntryIgnoresBlankQuery(t *testing.T) {
	m := embeddings.NewMockProvider("mock:test", 3)
	for _, tc := range []struct {
		query string
		strip bool
	}{
		{"the of", true},
		{"   ", false},
		{"", true},
	} {
		res, err := Query(context.Background(), m, &cache.Entry{Delimiter: "\n\n"}, tc.query, 3, tc.strip)
		require.NoError(t, err, "%q", tc.query)
		require.NotNil(t, res)
		assert.Equal(t, 0, res.Len())
	}
	res, err := Query(context.Background(), m, nil, "the of", 3, true)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, 0, m.Calls)
}

func TestSuggestCommand(t *testing.T) {
	assert.Equal(t, "ls -a", SuggestCommand("ls", "  -a, --all\n  do not ignore"))
	assert.Equal(t, "sort --reverse", SuggestCommand("sort", "Options:\n\n   --reverse   reverse order"))
	assert.Equal(t, "tar -x", SuggestCommand("tar", "-x\textract"))
	assert.Equal(t, "", SuggestCommand("ls", "NAME\n  ls - list directory contents"))
	assert.Equal(t, "", SuggestCommand("ls", ""))
}
