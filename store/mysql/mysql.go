// Package mysql stores plot style overrides in a MySQL key-value table.
// MySQL has no notification channel, so pair it with a message-bus feed
// (storage.feed) when several processes need to reload on change.
package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultTable is created by the bundled migrations
const DefaultTable = "plot_style_kv"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// Config holds the MySQL backend settings. A table other than DefaultTable
// must be provisioned with the same columns.
type Config struct {
	DSN            string `json:"dsn" yaml:"dsn"`
	Table          string `json:"table" yaml:"table"`
	MaxConnections int    `json:"max_connections" yaml:"max_connections"`
	AutoMigrate    bool   `json:"auto_migrate" yaml:"auto_migrate"`
}

// Store implements store.KVStore on MySQL
type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// New opens the database, pings it and, if enabled, runs migrations
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql store: dsn is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("mysql store: invalid table name %q", cfg.Table)
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	driverCfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql store: parsing dsn: %w", err)
	}
	driverCfg.ParseTime = true
	connector, err := mysql.NewConnector(driverCfg)
	if err != nil {
		return nil, fmt.Errorf("mysql store: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql store: ping %s: %w", driverCfg.Addr, err)
	}

	if cfg.AutoMigrate {
		if err := migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{
		db:     db,
		table:  "`" + cfg.Table + "`",
		logger: logger.With(slog.String("module", "store/mysql"), slog.String("addr", driverCfg.Addr)),
	}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("mysql store: setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("mysql store: running migrations: %w", err)
	}
	return nil
}

// Get reads key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM "+s.table+" WHERE name = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql store: get %s: %w", key, err)
	}
	return value, nil
}

// Put upserts key
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+s.table+" (name, value, origin) VALUES (?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE value = VALUES(value), origin = VALUES(origin)",
		key, value, store.OriginFrom(ctx))
	if err != nil {
		return fmt.Errorf("mysql store: put %s: %w", key, err)
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}
