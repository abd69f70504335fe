package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kamusis/mansh/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective settings and cached models",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	fmt.Println("=== mansh status ===")

	printBullet("Settings:")
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		printSkip("config", cfgPath+" (not written, defaults in use)")
	} else {
		printInfo("config", cfgPath)
	}
	printInfo("model", a.cfg.Model)
	printInfo("delimiter", strconv.Quote(a.cfg.Delimiter))
	maxResults := strconv.Itoa(a.cfg.MaxResults)
	if a.cfg.MaxResults <= 0 {
		maxResults = "all"
	}
	printInfo("max results", maxResults)
	printInfo("strip stop words", strconv.FormatBool(a.cfg.StripStopwords))
	printInfo("cache dir", a.cfg.CacheDir)

	printBullet("Cached models:")
	models, err := a.store.Models()
	if err != nil {
		return err
	}
	if len(models) == 0 {
		printMiss("", "none yet")
	}
	current := false
	for _, m := range models {
		if m == a.cfg.Model {
			current = true
			printOK(m, "active")
			continue
		}
		printSkip(m, "")
	}
	if !current {
		printWarn(a.cfg.Model, "not cached yet; the first query creates it")
	}
	return nil
}
