package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamusis/mansh/internal/cache"
	"github.com/kamusis/mansh/internal/search"
)

var (
	flagQuerySave    bool
	flagQueryTimeout time.Duration
)

var queryCmd = &cobra.Command{
	Use:   "query <command> <question...>",
	Short: "Answer one question about a command's man page and exit",
	Long: `Rank the paragraphs of <command>'s man page against a question.

Embeddings computed for a command that is not cached yet are kept in memory
only, unless --save is given.

Example:
  mansh query ls list hidden files
  mansh query -k 3 --save tar extract a gzip archive`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&flagQuerySave, "save", false, "Write newly computed embeddings to the cache")
	queryCmd.Flags().DurationVar(&flagQueryTimeout, "timeout", 2*time.Minute, "Give up fetching and embedding after this long")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	command := args[0]
	question := strings.Join(args[1:], " ")

	provider, err := a.newProvider(a.cfg.Model)
	if err != nil {
		return fmt.Errorf("cannot set up model %s: %w", a.cfg.Model, err)
	}
	mc, _, err := a.store.OpenOrCreate(a.cfg.Model)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if flagQueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagQueryTimeout)
		defer cancel()
	}

	status, err := cache.EnsureCommand(ctx, mc, a.fetcher, provider, command, a.cfg.Delimiter)
	if err != nil {
		return err
	}
	if status == cache.NotFound {
		printMiss(command, "no man page found")
		return fmt.Errorf("no man page found for %s", command)
	}
	a.log.Debug("command ready", zap.String("command", command), zap.Stringer("status", status))

	entry, _ := mc.Entry(command)
	res, err := search.Query(ctx, provider, entry, question, a.cfg.MaxResults, a.cfg.StripStopwords)
	if errors.Is(err, search.ErrEmptyQuery) {
		return fmt.Errorf("nothing left to search for in %q once stop words are removed", question)
	}
	if err != nil {
		return err
	}
	printQueryResult(command, question, res)

	if !mc.Dirty() {
		return nil
	}
	if !flagQuerySave {
		printInfo(command, "embeddings not cached (re-run with --save to keep them)")
		return nil
	}
	if err := a.store.Persist(mc); err != nil {
		return err
	}
	printOK(command, fmt.Sprintf("embeddings cached in %s", a.store.Path(a.cfg.Model)))
	return nil
}

func printQueryResult(command, question string, res *search.Result) {
	printSection(fmt.Sprintf("%s: %s", command, question))
	if res.Len() == 0 {
		printMiss(command, "man page is empty")
		return
	}
	suggestion := ""
	for i, p := range res.Paragraphs {
		fmt.Printf("\n[%d] (score %.3f)\n%s\n", i+1, res.Scores[i], strings.TrimRight(p, "\n"))
		if suggestion == "" {
			suggestion = search.SuggestCommand(command, p)
		}
	}
	fmt.Println()
	if suggestion != "" {
		printInfo("", "Suggested: "+suggestion)
	}
}
