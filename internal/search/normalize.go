package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

var stopWords = mustLoadStopWords()

func mustLoadStopWords() analysis.TokenMap {
	m := analysis.NewTokenMap()
	if err := m.LoadBytes(en.EnglishStopWords); err != nil {
		panic(fmt.Sprintf("load english stop words: %v", err))
	}
	return m
}

// IsStopWord reports whether word is in the English stop word list.
// Matching is exact, so "The" is not a stop word while "the" is.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Normalize drops English stop words from text and joins the remaining
// tokens with single spaces. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if IsStopWord(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
