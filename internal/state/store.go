package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"webpkg/internal/wp"
)

// Store loads and saves a UserConfig as a JSON file.
// Saves are serialized and atomic (temp file + rename).
type Store struct {
	path     string
	defaults UserConfig
	logger   wp.Logger
	mu       sync.Mutex
}

// NewStore creates a Store for the file at path.
func NewStore(path string, defaults UserConfig, logger wp.Logger) *Store {
	return &Store{path: path, defaults: defaults, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the user config. A missing file is created with defaults.
// Keys that do not parse are logged and replaced by their defaults in
// memory; the file itself is left untouched until the next Save.
func (s *Store) Load() (UserConfig, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := s.defaults.Clone()
			if err := s.Save(cfg); err != nil {
				return cfg, err
			}
			s.logger.Info("user config created", "path", s.path)
			return cfg, nil
		}
		return s.defaults.Clone(), fmt.Errorf("reading user config: %w", err)
	}

	cfg, err := Decode(raw, s.defaults)
	if err != nil {
		s.logger.Warn("user config has invalid values, using defaults for them", "path", s.path, "error", err)
		return cfg, nil
	}
	return cfg, nil
}

// Save writes cfg atomically.
func (s *Store) Save(cfg UserConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.RecentSources == nil {
		cfg.RecentSources = []RecentSourceEntry{}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating user config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing user config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing user config: %w", err)
	}
	return nil
}
