package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kamusis/mansh/internal/cache"
)

var flagInspectYAML bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [model]",
	Short: "Show what a model cache contains",
	Long: `Display the commands cached for a model, with their delimiter,
paragraph count and vector dimension.

Without an argument the configured model is inspected.

Example:
  mansh inspect
  mansh inspect ollama:nomic-embed-text --yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&flagInspectYAML, "yaml", false, "Print the summary as YAML")
	rootCmd.AddCommand(inspectCmd)
}

// cacheSummary is the YAML view of a model cache.
type cacheSummary struct {
	Model     string           `yaml:"model"`
	Path      string           `yaml:"path"`
	CreatedAt time.Time        `yaml:"created_at"`
	UpdatedAt time.Time        `yaml:"updated_at"`
	Commands  []commandSummary `yaml:"commands"`
}

type commandSummary struct {
	Name       string `yaml:"name"`
	Delimiter  string `yaml:"delimiter"`
	Paragraphs int    `yaml:"paragraphs"`
	Dim        int    `yaml:"dim"`
}

func summarize(store *cache.Store, mc *cache.ModelCache) cacheSummary {
	s := cacheSummary{
		Model:     mc.Model,
		Path:      store.Path(mc.Model),
		CreatedAt: mc.CreatedAt,
		UpdatedAt: mc.UpdatedAt,
		Commands:  []commandSummary{},
	}
	for _, name := range mc.Names() {
		e := mc.Commands[name]
		s.Commands = append(s.Commands, commandSummary{
			Name:       name,
			Delimiter:  e.Delimiter,
			Paragraphs: len(e.Paragraphs),
			Dim:        e.Dim(),
		})
	}
	return s
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	model := a.cfg.Model
	if len(args) == 1 {
		model = args[0]
	}
	mc, err := a.store.Load(model)
	if err != nil {
		return err
	}
	s := summarize(a.store, mc)

	if flagInspectYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("cannot encode summary: %w", err)
		}
		return enc.Close()
	}

	fmt.Printf("Model:    %s\n", s.Model)
	fmt.Printf("File:     %s\n", s.Path)
	fmt.Printf("Created:  %s\n", s.CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("Updated:  %s\n", s.UpdatedAt.Local().Format(time.RFC3339))
	fmt.Printf("Commands: %d\n", len(s.Commands))
	if len(s.Commands) == 0 {
		return nil
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tDELIMITER\tPARAGRAPHS\tDIM")
	for _, c := range s.Commands {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", c.Name, strconv.Quote(c.Delimiter), c.Paragraphs, c.Dim)
	}
	return w.Flush()
}
