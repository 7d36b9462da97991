// Package config loads the optional .codehud.toml project file and detects
// project namespace prefixes from manifest files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project config looked up at the scan root.
const FileName = ".codehud.toml"

// Config mirrors .codehud.toml. Zero values mean "use the built-in default".
type Config struct {
	// Prefixes mark imports as internal. Detected prefixes are appended.
	Prefixes []string `toml:"prefixes"`
	// RelativeMarkers replace the default relative-import markers when set.
	RelativeMarkers []string `toml:"relative_markers"`
	// QueryDirs are searched for .scm overrides before the embedded set.
	QueryDirs []string `toml:"query_dirs"`
	// Exclude adds directory names to the walker's fixed exclusion list.
	Exclude    []string `toml:"exclude"`
	MatchLimit int      `toml:"match_limit"`
	Workers    int      `toml:"workers"`
	// Cache is a SQLite path. Relative paths resolve against the scan root.
	Cache string `toml:"cache"`
}

// Load reads path. A missing file yields an empty Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadRoot reads explicit when non-empty, otherwise root/.codehud.toml.
// An explicit path that does not exist is an error.
func LoadRoot(root, explicit string) (*Config, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return Load(explicit)
	}
	return Load(filepath.Join(root, FileName))
}

// Parse decodes TOML. Unknown keys are rejected.
func Parse(data []byte, name string) (*Config, error) {
	cfg := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	return cfg, nil
}

// Validate rejects negative limits.
func (c *Config) Validate() error {
	if c.MatchLimit < 0 {
		return fmt.Errorf("match_limit must be >= 0, got %d", c.MatchLimit)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// CachePath resolves Cache against root. Empty means no cache.
func (c *Config) CachePath(root string) string {
	if c.Cache == "" || filepath.IsAbs(c.Cache) {
		return c.Cache
	}
	return filepath.Join(root, c.Cache)
}

// Merge overlays non-zero fields of o onto a copy of c. Slices from o
// replace those of c.
func (c *Config) Merge(o *Config) *Config {
	out := *c
	if o == nil {
		return &out
	}
	if len(o.Prefixes) > 0 {
		out.Prefixes = o.Prefixes
	}
	if len(o.RelativeMarkers) > 0 {
		out.RelativeMarkers = o.RelativeMarkers
	}
	if len(o.QueryDirs) > 0 {
		out.QueryDirs = o.QueryDirs
	}
	if len(o.Exclude) > 0 {
		out.Exclude = o.Exclude
	}
	if o.MatchLimit > 0 {
		out.MatchLimit = o.MatchLimit
	}
	if o.Workers > 0 {
		out.Workers = o.Workers
	}
	if o.Cache != "" {
		out.Cache = o.Cache
	}
	return &out
}
