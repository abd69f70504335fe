// Package session implements the interactive read-prompt-act loop: it keeps
// the active model cache, the paragraph delimiter and the working directory,
// and asks before writing changed caches back to disk.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kamusis/mansh/internal/cache"
	"github.com/kamusis/mansh/internal/embeddings"
	"github.com/kamusis/mansh/internal/logging"
	"github.com/kamusis/mansh/internal/search"
)

// ProviderFactory builds the embedding provider for a model identifier.
type ProviderFactory func(model string) (embeddings.Provider, error)

// Options configures a Session.
type Options struct {
	Store       *cache.Store
	Fetcher     cache.PageFetcher
	NewProvider ProviderFactory

	Model          string
	Delimiter      string
	Delimiters     []string
	MaxResults     int
	StripStopwords bool

	Prompter Prompter
	Stdin    io.Reader
	Out      io.Writer
	Shell    string
	Log      *zap.Logger
}

// Session is the state of one interactive run.
type Session struct {
	store       *cache.Store
	fetcher     cache.PageFetcher
	newProvider ProviderFactory
	prompter    Prompter
	stdin       io.Reader
	out         printer
	shell       string
	log         *zap.Logger

	model      string
	mc         *cache.ModelCache
	provider   embeddings.Provider
	delimiter  string
	delimiters []string
	maxResults int
	strip      bool

	prevDir        string
	lastSuggestion string
}

// Open loads (or creates) the cache of opts.Model and builds its provider.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil || opts.Fetcher == nil || opts.NewProvider == nil || opts.Prompter == nil {
		return nil, errors.New("session: store, fetcher, provider factory and prompter are required")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Shell == "" {
		opts.Shell = "sh"
	}
	s := &Session{
		store:       opts.Store,
		fetcher:     opts.Fetcher,
		newProvider: opts.NewProvider,
		prompter:    opts.Prompter,
		stdin:       opts.Stdin,
		out:         printer{w: opts.Out},
		shell:       opts.Shell,
		log:         logging.OrNop(opts.Log),
		delimiter:   opts.Delimiter,
		delimiters:  opts.Delimiters,
		maxResults:  opts.MaxResults,
		strip:       opts.StripStopwords,
	}
	if err := s.open(opts.Model); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) open(model string) error {
	provider, err := s.newProvider(model)
	if err != nil {
		return fmt.Errorf("cannot set up model %s: %w", model, err)
	}
	mc, created, err := s.store.OpenOrCreate(model)
	if err != nil {
		return err
	}
	if created {
		s.log.Debug("created empty cache", zap.String("model", model), zap.String("path", s.store.Path(model)))
	}
	s.model, s.mc, s.provider = model, mc, provider
	return nil
}

// Model returns the active model identifier.
func (s *Session) Model() string { return s.model }

// Delimiter returns the active paragraph delimiter.
func (s *Session) Delimiter() string { return s.delimiter }

// Cache returns the active model cache.
func (s *Session) Cache() *cache.ModelCache { return s.mc }

// Dirty reports whether the active cache has unsaved changes.
func (s *Session) Dirty() bool { return s.mc.Dirty() }

// PrevDir returns the directory before the last successful cd.
func (s *Session) PrevDir() string { return s.prevDir }

// LastSuggestion returns the last suggested command line, if any.
func (s *Session) LastSuggestion() string { return s.lastSuggestion }

// Search makes sure command is cached under the active delimiter and ranks
// its paragraphs against query. A missing manual page is reported and
// yields a nil result without error.
func (s *Session) Search(ctx context.Context, command, query string) (*search.Result, error) {
	status, err := cache.EnsureCommand(ctx, s.mc, s.fetcher, s.provider, command, s.delimiter)
	if err != nil {
		return nil, err
	}
	switch status {
	case cache.NotFound:
		s.out.miss("No man page found for " + command)
		return nil, nil
	case cache.MissFilled:
		e, _ := s.mc.Entry(command)
		s.log.Debug("stored new command embeddings",
			zap.String("command", command),
			zap.Int("paragraphs", len(e.Paragraphs)),
		)
	}
	e, _ := s.mc.Entry(command)
	return search.Query(ctx, s.provider, e, query, s.maxResults, s.strip)
}

// Render prints res and remembers the first command suggestion found in the
// ranked paragraphs.
func (s *Session) Render(command string, res *search.Result) {
	if res == nil {
		return
	}
	if res.Len() == 0 {
		s.out.miss("The man page of " + command + " is empty")
		return
	}
	suggestion := ""
	for i, p := range res.Paragraphs {
		s.out.printf("\n[%d] (score %.3f)\n%s\n", i+1, res.Scores[i], strings.TrimRight(p, "\n"))
		if suggestion == "" {
			suggestion = search.SuggestCommand(command, p)
		}
	}
	fmt.Fprintln(s.out.w)
	if suggestion != "" {
		s.lastSuggestion = suggestion
		s.out.info("Suggested: " + suggestion + "   (run it with !!)")
	}
}

// ConfirmPersist asks whether to write the active cache when it has unsaved
// changes. It reports whether the cache was written.
func (s *Session) ConfirmPersist() (bool, error) {
	if !s.mc.Dirty() {
		return false, nil
	}
	k, err := s.prompter.ReadKey("Data was updated. Cache it for future? (Yes[y]/No[any other key]) : ")
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if k != 'y' && k != 'Y' {
		s.out.info("Not saved!")
		return false, nil
	}
	if err := s.store.Persist(s.mc); err != nil {
		return false, err
	}
	s.out.ok("Saved!")
	return true, nil
}

// Save writes the active cache unconditionally.
func (s *Session) Save() error {
	if err := s.store.Persist(s.mc); err != nil {
		return err
	}
	s.out.ok("Saved " + strconv.Itoa(len(s.mc.Commands)) + " command(s) for " + s.model)
	return nil
}

func (s *Session) switchModel(ctx context.Context, model string) error {
	provider, err := s.newProvider(model)
	if err != nil {
		s.out.err(fmt.Sprintf("cannot use model %s: %v", model, err))
		return nil
	}
	if _, err := s.ConfirmPersist(); err != nil {
		return err
	}
	mc, _, err := s.store.OpenOrCreate(model)
	if err != nil {
		return err
	}
	s.model, s.mc, s.provider = model, mc, provider
	s.out.info("Model set to " + model)
	return nil
}

// AddModel creates an empty cache for model without switching to it.
// It reports false when the model is already cached or has no usable
// provider; the latter is printed, not returned.
func (s *Session) AddModel(ctx context.Context, model string) (bool, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return false, errors.New("model name is required")
	}
	exists, err := s.store.Exists(model)
	if err != nil {
		return false, err
	}
	if exists {
		s.out.warn("Model already exists!")
		return false, nil
	}
	if _, err := s.newProvider(model); err != nil {
		s.out.err(fmt.Sprintf("cannot use model %s: %v", model, err))
		return false, nil
	}
	if _, _, err := s.store.OpenOrCreate(model); err != nil {
		return false, err
	}
	s.out.ok("Added model " + model)
	return true, nil
}

// ListCommands prints the commands cached for the active delimiter.
func (s *Session) ListCommands() {
	names := s.mc.CommandsFor(s.delimiter)
	if len(names) == 0 {
		s.out.miss("No commands cached for delimiter " + strconv.Quote(s.delimiter))
		return
	}
	fmt.Fprintf(s.out.w, "Cached commands (delimiter %s) :\n", strconv.Quote(s.delimiter))
	for _, n := range names {
		fmt.Fprintln(s.out.w, "  "+n)
	}
}

// ListModels prints the cached models, marking the active one.
func (s *Session) ListModels() error {
	models, err := s.store.Models()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out.w, "Cached models :")
	for i, m := range withCurrent(models, s.model) {
		mark := " "
		if m == s.model {
			mark = "*"
		}
		fmt.Fprintf(s.out.w, "%s[%d] : %s\n", mark, i, m)
	}
	return nil
}
