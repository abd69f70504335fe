package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.mansh/mansh.yaml.
type Config struct {
	CacheDir        string        `yaml:"cache_dir"`
	Model           string        `yaml:"model"`
	DefaultProvider string        `yaml:"default_provider,omitempty"`
	Delimiter       string        `yaml:"delimiter"`
	Delimiters      []string      `yaml:"delimiters,omitempty"`
	MaxResults      int           `yaml:"max_results"`
	StripStopwords  bool          `yaml:"strip_stopwords"`
	QueryCacheSize  int           `yaml:"query_cache_size,omitempty"`
	QueryCacheTTL   time.Duration `yaml:"query_cache_ttl,omitempty"`
	LockTimeout     time.Duration `yaml:"lock_timeout,omitempty"`
	ManPath         string        `yaml:"man_path,omitempty"`
}

// ManshDir returns the absolute path to ~/.mansh/.
func ManshDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".mansh"), nil
}

// ConfigPath returns the absolute path to ~/.mansh/mansh.yaml.
func ConfigPath() (string, error) {
	dir, err := ManshDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mansh.yaml"), nil
}

// ExpandPath expands "~" and a leading "~/" to the user's home directory.
// "~user" forms are returned unchanged.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the Config used when no mansh.yaml exists.
func DefaultConfig() (*Config, error) {
	dir, err := ManshDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CacheDir:        filepath.Join(dir, "cache"),
		Model:           "openai:text-embedding-3-small",
		DefaultProvider: "openai",
		Delimiter:       "\n\n",
		Delimiters:      []string{"\n\n", "\n", "\n\n\n"},
		MaxResults:      5,
		StripStopwords:  false,
		QueryCacheSize:  256,
		QueryCacheTTL:   30 * time.Minute,
		LockTimeout:     10 * time.Second,
		ManPath:         "man",
	}, nil
}

// Load reads ~/.mansh/mansh.yaml. A missing file yields DefaultConfig.
// Fields left empty in the file are filled from the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	def, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	cfg.applyDefaults(def)

	// Expand ~ in CacheDir at load time.
	cfg.CacheDir, err = ExpandPath(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults(def *Config) {
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = def.DefaultProvider
	}
	if c.Delimiter == "" {
		c.Delimiter = def.Delimiter
	}
	if len(c.Delimiters) == 0 {
		c.Delimiters = def.Delimiters
	}
	if c.MaxResults == 0 {
		c.MaxResults = def.MaxResults
	}
	if c.QueryCacheSize == 0 {
		c.QueryCacheSize = def.QueryCacheSize
	}
	if c.QueryCacheTTL == 0 {
		c.QueryCacheTTL = def.QueryCacheTTL
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = def.LockTimeout
	}
	if c.ManPath == "" {
		c.ManPath = def.ManPath
	}
}

// EffectiveDelimiters returns the configured delimiter choices, always
// including the current delimiter.
func (c *Config) EffectiveDelimiters() []string {
	out := make([]string, 0, len(c.Delimiters)+1)
	seen := false
	for _, d := range c.Delimiters {
		if d == c.Delimiter {
			seen = true
		}
		out = append(out, d)
	}
	if !seen && c.Delimiter != "" {
		out = append(out, c.Delimiter)
	}
	return out
}

// Save marshals cfg and writes it to ~/.mansh/mansh.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// UnescapeDelimiter turns a delimiter typed on the command line ("\n\n",
// "\t") into the literal string used to split manual pages.
func UnescapeDelimiter(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, `\`)
	return r.Replace(s)
}
