package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/kintreehq/kintree/pkg/cache"
	"github.com/kintreehq/kintree/pkg/config"
	"github.com/kintreehq/kintree/pkg/editor"
	"github.com/kintreehq/kintree/pkg/store"
)

// resolveDataDir expands the --data-dir flag, defaulting to the XDG config
// location (~/.config/kintree).
func resolveDataDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/kintree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// loadConfig resolves the data directory and reads its config file.
func loadConfig(dataDirFlag string) (config.Config, error) {
	dir, err := resolveDataDir(dataDirFlag)
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadDir(dir)
}

// newStore builds the persistence backend the config selects.
func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == "mongo" {
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:      cfg.Store.MongoURI,
			Database: cfg.Store.MongoDatabase,
		})
	}
	return store.NewFileStore(cfg.DataDir)
}

// newCache builds the derived-artifact cache the config selects. Cache
// construction failures degrade to no caching; they never block a command.
func newCache(ctx context.Context, cfg config.Config, logger *log.Logger) cache.Cache {
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache()
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache()
		}
		return c
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			logger.Warn("file cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache()
		}
		return c
	}
}

// newKeyer scopes cache keys to the data directory, so several trees
// sharing one backend (a common Redis instance, the shared XDG cache dir)
// never mix artifacts.
func newKeyer(cfg config.Config) cache.Keyer {
	scope := "tree:" + cache.Hash([]byte(cfg.DataDir))[:12] + ":"
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope)
}

// openEditor wires config, store and editor together for a command.
func openEditor(ctx context.Context, dataDirFlag string, logger *log.Logger) (*editor.Editor, config.Config, error) {
	cfg, err := loadConfig(dataDirFlag)
	if err != nil {
		return nil, cfg, err
	}
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	ed, err := editor.Open(ctx, st, editor.WithLogger(logger))
	if err != nil {
		return nil, cfg, err
	}
	return ed, cfg, nil
}
