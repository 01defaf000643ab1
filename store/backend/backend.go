// Package backend builds a configured store.Store.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dlblack/sad-sandbox-sub000/dss"
	"github.com/dlblack/sad-sandbox-sub000/internal/config"
	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/store/feed"
	"github.com/dlblack/sad-sandbox-sub000/store/file"
	"github.com/dlblack/sad-sandbox-sub000/store/mysql"
	"github.com/dlblack/sad-sandbox-sub000/store/postgres"
	"github.com/dlblack/sad-sandbox-sub000/store/redis"
	"github.com/dlblack/sad-sandbox-sub000/store/s3"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// Open connects the backend named by cfg.Type and, when a feed is
// configured, wraps it so writes are broadcast on that bus.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.KVStore, error) {
	kv, err := openKV(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bus, err := feed.Open(ctx, cfg.Feed)
	if err != nil {
		kv.Close()
		return nil, err
	}
	if bus == nil {
		return kv, nil
	}
	return feed.Wrap(kv, bus, logger), nil
}

func openKV(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.KVStore, error) {
	switch cfg.Type {
	case config.StorageMemory:
		return store.NewMemory(), nil
	case "", config.StorageFile:
		return file.New(cfg.File, logger)
	case config.StorageRedis:
		return redis.New(ctx, cfg.Redis, logger)
	case config.StoragePostgres:
		return postgres.New(ctx, cfg.Postgres, logger)
	case config.StorageMySQL:
		return mysql.New(ctx, cfg.MySQL, logger)
	case config.StorageS3:
		return s3.New(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Type)
	}
}

// Base returns the base rule set: the built-in rules or the configured
// file, followed by the frequency-curve presets when enabled.
func Base(cfg config.DefaultsConfig) (style.PlotStyleDefaults, error) {
	base := store.BaseDefaults()
	if cfg.File != "" {
		loaded, err := store.LoadDefaultsFile(cfg.File)
		if err != nil {
			return style.PlotStyleDefaults{}, err
		}
		base = loaded
	}
	if cfg.IncludePeakFlowFrequency {
		base.Rules = append(base.Clone().Rules, dss.PeakFlowFrequencyRules()...)
	}
	return base, nil
}

// NewStore opens the backend, builds the base and returns an initialized
// store. The caller closes the returned KVStore.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, store.KVStore, error) {
	base, err := Base(cfg.Defaults)
	if err != nil {
		return nil, nil, err
	}
	kv, err := Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}

	s := store.New(kv,
		store.WithKey(cfg.Storage.Key),
		store.WithBase(base),
		store.WithLogger(logger),
	)
	s.Init(ctx)
	return s, kv, nil
}
