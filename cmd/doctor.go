package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/kamusis/mansh/internal/cache"
	"github.com/kamusis/mansh/internal/config"
	"github.com/kamusis/mansh/internal/embeddings"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that mansh's dependencies and environment are correctly configured.
Run this command when something seems wrong, or before filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("mansh doctor")
	fmt.Println()

	// ── Check 1: mansh.yaml is valid ──────────────────────────────────────────
	fmt.Println("[ mansh.yaml ]")
	cfgPath, _ := config.ConfigPath()
	cfg, loadErr := config.Load()
	switch {
	case loadErr != nil:
		failD("cannot parse %s: %v", cfgPath, loadErr)
		cfg, _ = config.DefaultConfig()
	default:
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			printSkip("", fmt.Sprintf("%s not found, using defaults (run 'mansh init' to write it)", cfgPath))
		} else {
			printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
		}
	}
	if cfg == nil {
		return fmt.Errorf("cannot determine home directory")
	}
	applyFlagOverrides(cmd, cfg)
	fmt.Println()

	// ── Check 2: man installed ────────────────────────────────────────────────
	fmt.Println("[ man ]")
	if path, err := exec.LookPath(cfg.ManPath); err != nil {
		failD("%s not found on PATH; install man-db or set man_path in mansh.yaml", cfg.ManPath)
	} else {
		printOK("", path)
	}
	fmt.Println()

	// ── Check 3: cache directory writable ─────────────────────────────────────
	fmt.Println("[ Cache directory ]")
	if err := checkWritableDir(cfg.CacheDir); err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("writable: %s", cfg.CacheDir))
	}
	fmt.Println()

	// ── Check 4: provider credentials ─────────────────────────────────────────
	fmt.Println("[ Embedding provider ]")
	embCfg, err := embeddings.LoadConfig(cfg.DefaultProvider)
	if err != nil {
		failD("cannot read provider settings: %v", err)
	} else {
		provider, model := embeddings.ParseModelID(cfg.Model, embCfg.DefaultProvider)
		switch {
		case provider == embeddings.ProviderOpenAI && embCfg.OpenAIAPIKey == "":
			failD("model %s needs %s (environment or ~/.mansh/.env)", cfg.Model, config.KeyOpenAIAPIKey)
		case provider == embeddings.ProviderGemini && embCfg.GeminiAPIKey == "":
			failD("model %s needs %s (environment or ~/.mansh/.env)", cfg.Model, config.KeyGeminiAPIKey)
		case provider == embeddings.ProviderOllama:
			printOK(provider, fmt.Sprintf("%s via %s (no key required)", model, embCfg.OllamaBaseURL))
		default:
			printOK(provider, fmt.Sprintf("%s, credentials present", model))
		}
	}
	fmt.Println()

	// ── Check 5: cached models load ───────────────────────────────────────────
	fmt.Println("[ Cached models ]")
	store := cache.NewStore(cfg.CacheDir, cfg.LockTimeout, nil)
	models, err := store.Models()
	switch {
	case err != nil:
		failD("%v", err)
	case len(models) == 0:
		printSkip("", "no cached models yet")
	default:
		for _, m := range models {
			mc, err := store.Load(m)
			if err != nil {
				failD("[%s] %v", m, err)
				continue
			}
			printOK(m, fmt.Sprintf("%d command(s)", len(mc.Commands)))
		}
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. mansh is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// checkWritableDir creates dir if needed and checks it by writing and removing a temporary file.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".mansh-doctor-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
