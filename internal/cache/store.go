package cache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kamusis/mansh/internal/logging"
)

const (
	filePrefix = ".cache_"
	fileSuffix = ".jsonl"

	defaultLockTimeout = 10 * time.Second
)

// Store reads and writes model cache files inside one directory.
type Store struct {
	dir         string
	lockTimeout time.Duration
	log         *zap.Logger
}

// NewStore returns a Store rooted at dir. A non-positive lockTimeout uses the default.
func NewStore(dir string, lockTimeout time.Duration, log *zap.Logger) *Store {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{dir: dir, lockTimeout: lockTimeout, log: logging.OrNop(log)}
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the cache file path of model.
func (s *Store) Path(model string) string {
	return filepath.Join(s.dir, filePrefix+url.PathEscape(model)+fileSuffix)
}

// Models lists the models that have a cache file, sorted.
func (s *Store) Models() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot list cache dir %s: %w", s.dir, err)
	}
	out := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		escaped := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		model, err := url.PathUnescape(escaped)
		if err != nil || model == "" {
			continue
		}
		out = append(out, model)
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether model has a cache file.
func (s *Store) Exists(model string) (bool, error) {
	_, err := os.Stat(s.Path(model))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("cannot stat cache file: %w", err)
}

// Load reads the cache file of model. A missing file yields an error
// satisfying errors.Is(err, os.ErrNotExist).
func (s *Store) Load(model string) (*ModelCache, error) {
	path := s.Path(model)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open cache file %s: %w", path, err)
	}
	defer f.Close()

	unlock, err := acquireLock(path, true, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	mc, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load cache file %s: %w", path, err)
	}
	if mc.Model != model {
		return nil, fmt.Errorf("cannot load cache file %s: %w: model %q, want %q", path, ErrCorrupt, mc.Model, model)
	}
	s.log.Debug("loaded existing cache file",
		zap.String("model", model),
		zap.String("path", path),
		zap.Int("commands", len(mc.Commands)),
	)
	return mc, nil
}

// OpenOrCreate loads the cache of model, or creates and persists an empty one
// when no file exists yet. created reports which of the two happened.
func (s *Store) OpenOrCreate(model string) (mc *ModelCache, created bool, err error) {
	if strings.TrimSpace(model) == "" {
		return nil, false, fmt.Errorf("model name is required")
	}
	mc, err = s.Load(model)
	if err == nil {
		return mc, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	mc = NewModelCache(model)
	if err := s.Persist(mc); err != nil {
		return nil, false, err
	}
	s.log.Debug("no cache file found, set up a fresh one", zap.String("model", model))
	return mc, true, nil
}

// Persist writes mc to its file. The new content is written to a temporary
// file in the same directory and renamed over the target, so readers see
// either the previous file or the new one.
func (s *Store) Persist(mc *ModelCache) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache dir %s: %w", s.dir, err)
	}
	path := s.Path(mc.Model)

	unlock, err := acquireLock(path, false, s.lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	prevUpdated := mc.UpdatedAt
	mc.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		mc.UpdatedAt = prevUpdated
		return fmt.Errorf("cannot create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		mc.UpdatedAt = prevUpdated
		return err
	}

	if err := encode(tmp, mc); err != nil {
		return fail(fmt.Errorf("cannot write cache file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("cannot sync cache file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return fail(fmt.Errorf("cannot close cache file: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		mc.UpdatedAt = prevUpdated
		return fmt.Errorf("cannot install cache file %s: %w", path, err)
	}

	mc.dirty = false
	s.log.Debug("cache file written",
		zap.String("model", mc.Model),
		zap.String("path", path),
		zap.Int("commands", len(mc.Commands)),
	)
	return nil
}
