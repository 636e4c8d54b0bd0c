// Package config loads the application configuration from a TOML file,
// layering file values over built-in defaults. Everything works with no
// config file at all; the file exists to move the data directory, point at
// Mongo or Redis, or tune the layout spacing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kintreehq/kintree/pkg/tree/layout"
)

// DefaultFileName is the config file looked up inside the data directory.
const DefaultFileName = "kintree.toml"

// Config is the full application configuration.
type Config struct {
	// DataDir is where the family document, snapshots and file cache
	// live. Empty means ~/.config/kintree.
	DataDir string `toml:"data_dir"`

	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
}

// ServerConfig configures the local HTTP server.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "file" or "mongo".
	Backend string `toml:"backend"`

	// MongoURI is the connection string when Backend is "mongo".
	MongoURI string `toml:"mongo_uri"`

	// MongoDatabase overrides the default database name.
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects the derived-artifact cache backend.
type CacheConfig struct {
	// Backend is "file", "redis" or "none".
	Backend string `toml:"backend"`

	// RedisURL is the connection string when Backend is "redis".
	RedisURL string `toml:"redis_url"`
}

// LayoutConfig tunes the layout spacing constants.
type LayoutConfig struct {
	NodeWidth float64 `toml:"node_width"`
	HGap      float64 `toml:"h_gap"`
	VGap      float64 `toml:"v_gap"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Listen: "127.0.0.1:8470"},
		Store:  StoreConfig{Backend: "file"},
		Cache:  CacheConfig{Backend: "file"},
		Layout: LayoutConfig{
			NodeWidth: layout.DefaultMetrics.NodeWidth,
			HGap:      layout.DefaultMetrics.HGap,
			VGap:      layout.DefaultMetrics.VGap,
		},
	}
}

// Load reads the config file at path over the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

// LoadDir is Load over the conventional file inside a data directory,
// recording the directory itself when the file does not set one.
func LoadDir(dir string) (Config, error) {
	cfg, err := Load(filepath.Join(dir, DefaultFileName))
	if err != nil {
		return cfg, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "file", "mongo":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "mongo" && c.Store.MongoURI == "" {
		return fmt.Errorf("store backend %q requires mongo_uri", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache backend %q requires redis_url", c.Cache.Backend)
	}

	if c.Layout.NodeWidth <= 0 || c.Layout.HGap < 0 || c.Layout.VGap <= 0 {
		return fmt.Errorf("layout spacing must be positive")
	}
	return nil
}

// Metrics converts the layout section into the layout engine's form.
func (c Config) Metrics() layout.Metrics {
	return layout.Metrics{
		NodeWidth: c.Layout.NodeWidth,
		HGap:      c.Layout.HGap,
		VGap:      c.Layout.VGap,
	}
}
