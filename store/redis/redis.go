// Package redis stores plot style overrides in Redis and broadcasts writes on
// a pub/sub channel so every process sharing the instance can reload.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

// DefaultChannel carries change events when Config.Channel is empty
const DefaultChannel = "plotstyle:changes"

// Config holds the Redis backend settings
type Config struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Channel  string `json:"channel" yaml:"channel"`
}

// Store implements store.KVStore and store.Notifier on Redis
type Store struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// New connects to Redis and checks the connection
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis store: connecting to %s: %w", cfg.Addr, err)
	}

	return &Store{
		client:  client,
		channel: cfg.Channel,
		logger:  logger.With(slog.String("module", "store/redis"), slog.String("addr", cfg.Addr)),
	}, nil
}

// Get reads key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get %s: %w", key, err)
	}
	return value, nil
}

// Put sets key and publishes the change in one MULTI block
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	change := store.EncodeChange(store.Change{Key: key, Origin: store.OriginFrom(ctx), At: time.Now()})

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, value, 0)
	pipe.Publish(ctx, s.channel, change)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store: set %s: %w", key, err)
	}
	return nil
}

// Changes subscribes to the change channel
func (s *Store) Changes(ctx context.Context) (<-chan store.Change, error) {
	sub := s.client.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis store: subscribing to %s: %w", s.channel, err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- store.DecodeChange([]byte(msg.Payload)):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.logger.Debug("subscribed to change channel", slog.String("channel", s.channel))
	return out, nil
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}
