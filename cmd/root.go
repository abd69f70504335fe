package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/mansh/internal/config"
	"github.com/kamusis/mansh/internal/session"
)

var (
	flagModel          string
	flagDelimiter      string
	flagMaxResults     int
	flagStripStopwords bool
	flagDebug          bool
)

var rootCmd = &cobra.Command{
	Use:          "mansh",
	Short:        "mansh — ask man pages questions in plain English",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `mansh splits a command's man page into paragraphs, embeds them with a
sentence-embedding model and shows the paragraphs closest to your question.

Run without arguments for the interactive shell:

  mansh> ls list hidden files
  mansh> tar extract a gzip archive

Embeddings are cached per model under ~/.mansh/cache.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagModel, "model", "m", "", "Embedding model, e.g. openai:text-embedding-3-small or ollama:nomic-embed-text")
	pf.StringVarP(&flagDelimiter, "delimiter", "d", "", `Paragraph delimiter; escapes like \n are understood (default from config)`)
	pf.IntVarP(&flagMaxResults, "max-results", "k", 0, "Number of paragraphs to show; 0 uses the config value, -1 shows all")
	pf.BoolVar(&flagStripStopwords, "strip-stopwords", false, "Remove English stop words before comparing")
	pf.BoolVar(&flagDebug, "debug", false, "Print debug information")
}

func runShell(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := session.Open(cmd.Context(), session.Options{
		Store:          a.store,
		Fetcher:        a.fetcher,
		NewProvider:    a.newProvider,
		Model:          a.cfg.Model,
		Delimiter:      a.cfg.Delimiter,
		Delimiters:     a.cfg.EffectiveDelimiters(),
		MaxResults:     a.cfg.MaxResults,
		StripStopwords: a.cfg.StripStopwords,
		Prompter:       session.NewTerminal(os.Stdin, os.Stdout),
		Stdin:          os.Stdin,
		Out:            os.Stdout,
		Log:            a.log,
	})
	if err != nil {
		return err
	}
	return sess.Run(cmd.Context())
}

// applyFlagOverrides copies explicitly set persistent flags onto cfg.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}
	if flags.Changed("delimiter") && flagDelimiter != "" {
		cfg.Delimiter = config.UnescapeDelimiter(flagDelimiter)
	}
	if flags.Changed("max-results") && flagMaxResults != 0 {
		cfg.MaxResults = flagMaxResults
	}
	if flags.Changed("strip-stopwords") {
		cfg.StripStopwords = flagStripStopwords
	}
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
