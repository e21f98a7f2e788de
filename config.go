package sawitdb

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config configures a DB opened with Open. The zero Config is valid and
// uses the pager's default page-cache size.
type Config struct {
	// PageCacheSize is the LRU page cache capacity in pages. Zero uses
	// the pager's default (1000 pages).
	PageCacheSize int `yaml:"page_cache_size"`
}

func (c Config) validate() error {
	if c.PageCacheSize < 0 {
		return fmt.Errorf("sawitdb: page_cache_size must be >= 0, got %d", c.PageCacheSize)
	}
	return nil
}

// LoadConfig reads a YAML config file, e.g.:
//
//	page_cache_size: 2000
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("sawitdb: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("sawitdb: parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DataDir returns the directory a database file lives in — the parent
// directory any sidecar files (the advisory lock, or external
// collaborators' own conventions such as _fts_index.json or
// _permissions.json) would be placed in. SawitDB itself reads and
// writes none of those sidecars.
func DataDir(dbPath string) string {
	return filepath.Dir(dbPath)
}
