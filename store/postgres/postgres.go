// Package postgres stores plot style overrides in a PostgreSQL key-value
// table and uses LISTEN/NOTIFY as the change feed.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	// DefaultTable is created by the bundled migrations
	DefaultTable = "plot_style_kv"
	// DefaultChannel is the NOTIFY channel for change events
	DefaultChannel = "plot_style_changes"
)

// Config holds the PostgreSQL backend settings. A table other than
// DefaultTable must be provisioned with the same columns.
type Config struct {
	DSN            string `json:"dsn" yaml:"dsn"`
	Table          string `json:"table" yaml:"table"`
	Channel        string `json:"channel" yaml:"channel"`
	MaxConnections int    `json:"max_connections" yaml:"max_connections"`
	AutoMigrate    bool   `json:"auto_migrate" yaml:"auto_migrate"`
}

// Store implements store.KVStore and store.Notifier on PostgreSQL
type Store struct {
	pool    *pgxpool.Pool
	table   string
	channel string
	logger  *slog.Logger
}

// New opens a pool, pings the database and, if enabled, runs migrations
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres store: dsn is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parsing dsn: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres store: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	s := &Store{
		pool:    pool,
		table:   pq.QuoteIdentifier(cfg.Table),
		channel: cfg.Channel,
		logger:  logger.With(slog.String("module", "store/postgres")),
	}

	if cfg.AutoMigrate {
		if err := Migrate(cfg.DSN); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate applies the bundled goose migrations
func Migrate(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("postgres store: opening database for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres store: setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("postgres store: running migrations: %w", err)
	}
	return nil
}

// Get reads key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, "SELECT value FROM "+s.table+" WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: get %s: %w", key, err)
	}
	return value, nil
}

// Put upserts key and notifies listeners in the same transaction
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	origin := store.OriginFrom(ctx)
	change := store.EncodeChange(store.Change{Key: key, Origin: origin, At: time.Now()})

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"INSERT INTO "+s.table+" (key, value, origin, updated_at) VALUES ($1, $2, $3, now()) "+
				"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = now()",
			key, value, origin)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, "SELECT pg_notify($1, $2)", s.channel, string(change))
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres store: put %s: %w", key, err)
	}
	return nil
}

// Changes holds one pooled connection in LISTEN mode until ctx is done
func (s *Store) Changes(ctx context.Context) (<-chan store.Change, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres store: acquiring listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pq.QuoteIdentifier(s.channel)); err != nil {
		conn.Release()
		return nil, fmt.Errorf("postgres store: listen %s: %w", s.channel, err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer func() {
			unlistenCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := conn.Exec(unlistenCtx, "UNLISTEN *"); err != nil {
				conn.Conn().Close(unlistenCtx)
			}
			conn.Release()
		}()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("listener stopped", slog.Any("error", err))
				}
				return
			}
			select {
			case out <- store.DecodeChange([]byte(notification.Payload)):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
