package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/mansh/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and credentials template",
	Long: `Initialize ~/.mansh/:

  ~/.mansh/mansh.yaml   model, delimiter and cache settings
  ~/.mansh/.env         provider API keys and endpoints (template)
  ~/.mansh/cache/       per-model embedding caches

Existing files are never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.mansh directory ─────────────────────────────────────────
	manshDir, err := config.ManshDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	// ── 2. Create ~/.mansh/ if it doesn't exist ───────────────────────────────
	if err := os.MkdirAll(manshDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", manshDir, err)
	}
	printOK("", fmt.Sprintf("mansh directory ready: %s", manshDir))

	// ── 3. Write mansh.yaml if missing ────────────────────────────────────────
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 4. Credentials template ───────────────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(envPath)
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if errors.Is(statErr, os.ErrNotExist) {
		printOK("", fmt.Sprintf("Credentials template written: %s", envPath))
	} else {
		printSkip("", fmt.Sprintf("Credentials file already exists: %s", envPath))
	}

	// ── 5. Cache directory ────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache dir %s: %w", cfg.CacheDir, err)
	}
	printOK("", fmt.Sprintf("Cache directory ready: %s", cfg.CacheDir))

	fmt.Println("\n✓  mansh init complete. Run 'mansh doctor' to verify your environment.")
	return nil
}
