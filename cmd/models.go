package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/mansh/internal/embeddings"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List cached embedding models",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

var modelsAddCmd = &cobra.Command{
	Use:   "add <model>",
	Short: "Create an empty cache for a model",
	Long: `Create an empty embedding cache for <model> so it shows up in the
interactive model menu (:p then m).

Model identifiers are <provider>:<model>, for example:
  openai:text-embedding-3-small
  ollama:nomic-embed-text
  gemini:text-embedding-004`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsAdd,
}

func init() {
	modelsCmd.AddCommand(modelsAddCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	models, err := a.store.Models()
	if err != nil {
		return err
	}
	if len(models) == 0 {
		printMiss("", fmt.Sprintf("no cached models in %s (run 'mansh' or 'mansh models add <model>')", a.store.Dir()))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  \tMODEL\tPROVIDER\tCOMMANDS\tUPDATED")
	for _, m := range models {
		mark := " "
		if m == a.cfg.Model {
			mark = "*"
		}
		provider, _ := embeddings.ParseModelID(m, a.cfg.DefaultProvider)
		mc, err := a.store.Load(m)
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, m, provider, "?", "unreadable: "+firstLine(err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", mark, m, provider, len(mc.Commands), mc.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runModelsAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	model := strings.TrimSpace(args[0])
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	exists, err := a.store.Exists(model)
	if err != nil {
		return err
	}
	if exists {
		printSkip(model, "Model already exists!")
		return nil
	}
	if _, err := a.newProvider(model); err != nil {
		return fmt.Errorf("cannot set up model %s: %w", model, err)
	}
	if _, _, err := a.store.OpenOrCreate(model); err != nil {
		return err
	}
	printOK(model, fmt.Sprintf("cache created: %s", a.store.Path(model)))
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
