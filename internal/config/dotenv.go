package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Keys read through GetConfigValue.
const (
	KeyOpenAIAPIKey  = "MANSH_OPENAI_API_KEY"
	KeyOpenAIBaseURL = "MANSH_OPENAI_BASE_URL"
	KeyOllamaBaseURL = "MANSH_OLLAMA_BASE_URL"
	KeyGeminiAPIKey  = "MANSH_GEMINI_API_KEY"
)

// dotEnvKeys is the template content: each key with a short hint.
var dotEnvKeys = []struct{ key, hint string }{
	{KeyOpenAIAPIKey, "API key for openai:<model>"},
	{KeyOpenAIBaseURL, "OpenAI-compatible endpoint, default https://api.openai.com/v1"},
	{KeyOllamaBaseURL, "ollama endpoint for ollama:<model>, default http://localhost:11434/v1"},
	{KeyGeminiAPIKey, "API key for gemini:<model>"},
}

// DotEnvPath returns ~/.mansh/.env.
func DotEnvPath() (string, error) {
	dir, err := ManshDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.mansh/.env. A missing file yields an empty map.
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", p, err)
	}
	defer f.Close()

	vals, err := parseDotEnv(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", p, err)
	}
	return vals, nil
}

// parseDotEnv accepts KEY=VALUE lines with an optional "export " prefix.
// Blank lines and '#' comments are skipped. Double-quoted values are
// unquoted; unquoted values lose a trailing " #comment".
func parseDotEnv(r io.Reader) (map[string]string, error) {
	vals := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		vals[k] = dotEnvValue(strings.TrimSpace(v))
	}
	return vals, sc.Err()
}

func dotEnvValue(v string) string {
	switch {
	case len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"':
		if u, err := strconv.Unquote(v); err == nil {
			return u
		}
		return v[1 : len(v)-1]
	case len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'':
		return v[1 : len(v)-1]
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

// GetConfigValue returns the process environment value of key, or the
// ~/.mansh/.env value when the variable is unset or empty.
func GetConfigValue(key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	vals, err := LoadDotEnv()
	if err != nil {
		return "", err
	}
	return vals[key], nil
}

// EnsureDotEnvTemplate writes a commented ~/.mansh/.env listing the provider
// keys. An existing file is left alone.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot stat %s: %w", p, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}

	var b strings.Builder
	b.WriteString("# mansh embedding providers. Environment variables take precedence.\n")
	for _, k := range dotEnvKeys {
		fmt.Fprintf(&b, "\n# %s\n%s=\n", k.hint, k.key)
	}
	if err := os.WriteFile(p, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("cannot write %s: %w", p, err)
	}
	return nil
}
