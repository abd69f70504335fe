package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/kamusis/mansh/internal/embeddings"
	"github.com/kamusis/mansh/internal/manpage"
)

// Status is the outcome of EnsureCommand.
type Status int

const (
	// Hit means the command was already cached with the requested delimiter.
	Hit Status = iota
	// MissFilled means the page was fetched, embedded and stored.
	MissFilled
	// NotFound means no manual page exists for the command.
	NotFound
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case MissFilled:
		return "miss-filled"
	case NotFound:
		return "not-found"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// PageFetcher retrieves a manual page split into paragraphs.
type PageFetcher interface {
	Fetch(ctx context.Context, command, delimiter string) ([]string, error)
}

// EnsureCommand makes sure mc holds command's paragraphs split by delimiter.
//
// An entry cached with another delimiter is refetched and replaced as a whole.
// When the page does not exist, or when fetching or embedding fails, mc is
// left untouched.
func EnsureCommand(ctx context.Context, mc *ModelCache, fetcher PageFetcher, provider embeddings.Provider, command, delimiter string) (Status, error) {
	if e, ok := mc.Entry(command); ok && e.Delimiter == delimiter {
		return Hit, nil
	}

	paragraphs, err := fetcher.Fetch(ctx, command, delimiter)
	if errors.Is(err, manpage.ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return NotFound, fmt.Errorf("fetch manual page for %s: %w", command, err)
	}

	vectors, err := embeddings.EmbedCorpus(ctx, provider, paragraphs)
	if err != nil {
		return NotFound, fmt.Errorf("embed manual page for %s: %w", command, err)
	}
	if len(vectors) != len(paragraphs) {
		return NotFound, fmt.Errorf("%w: %d paragraphs, %d vectors", ErrVectorLengthMismatch, len(paragraphs), len(vectors))
	}

	mc.Put(command, &Entry{Delimiter: delimiter, Paragraphs: paragraphs, Vectors: vectors})
	return MissFilled, nil
}
