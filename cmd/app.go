package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamusis/mansh/internal/cache"
	"github.com/kamusis/mansh/internal/config"
	"github.com/kamusis/mansh/internal/embeddings"
	"github.com/kamusis/mansh/internal/logging"
	"github.com/kamusis/mansh/internal/manpage"
)

// app bundles what every command needs once config and flags are resolved.
type app struct {
	cfg     *config.Config
	embCfg  *embeddings.Config
	log     *zap.Logger
	store   *cache.Store
	fetcher *manpage.Fetcher
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'mansh init' to write a fresh one.", err)
	}
	applyFlagOverrides(cmd, cfg)

	log, err := logging.New(flagDebug)
	if err != nil {
		return nil, err
	}
	embCfg, err := embeddings.LoadConfig(cfg.DefaultProvider)
	if err != nil {
		return nil, err
	}
	log.Debug("config loaded",
		zap.String("model", cfg.Model),
		zap.String("cache_dir", cfg.CacheDir),
		zap.Int("max_results", cfg.MaxResults),
		zap.Bool("strip_stopwords", cfg.StripStopwords),
	)
	return &app{
		cfg:     cfg,
		embCfg:  embCfg,
		log:     log,
		store:   cache.NewStore(cfg.CacheDir, cfg.LockTimeout, log),
		fetcher: manpage.NewFetcher(cfg.ManPath, log),
	}, nil
}

// newProvider rebuilds the provider of a cached model identifier, with query
// embeddings memoized for the lifetime of the process.
func (a *app) newProvider(model string) (embeddings.Provider, error) {
	p, err := embeddings.NewFromModelID(model, a.embCfg)
	if err != nil {
		return nil, err
	}
	return embeddings.WithQueryCache(p, a.cfg.QueryCacheSize, a.cfg.QueryCacheTTL), nil
}

func (a *app) close() {
	_ = a.log.Sync()
}
