// Package feed adds a message-bus change feed to a store.KVStore. It lets
// backends without native notifications (S3) or processes on different
// hosts (file) share reloads through Kafka or RabbitMQ.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

// Bus types
const (
	TypeNone  = ""
	TypeKafka = "kafka"
	TypeAMQP  = "amqp"
)

// Config selects the bus carrying change events
type Config struct {
	Type  string      `json:"type" yaml:"type"`
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`
	AMQP  AMQPConfig  `json:"amqp" yaml:"amqp"`
}

// Bus is a broadcast channel for opaque payloads. Every subscriber sees
// every payload published after it subscribed.
type Bus interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) (<-chan []byte, error)
	Close() error
}

// Open connects the bus named by cfg.Type. TypeNone yields a nil bus.
func Open(ctx context.Context, cfg Config) (Bus, error) {
	switch cfg.Type {
	case TypeNone:
		return nil, nil
	case TypeKafka:
		return NewKafka(cfg.Kafka)
	case TypeAMQP:
		return NewAMQP(ctx, cfg.AMQP)
	default:
		return nil, fmt.Errorf("unknown change feed %q", cfg.Type)
	}
}

// Store wraps a KVStore and publishes every Put on a Bus. Its change feed
// is the bus, replacing any feed of the wrapped store.
type Store struct {
	kv     store.KVStore
	bus    Bus
	logger *slog.Logger
}

// Wrap returns kv with changes broadcast on bus. Closing the result closes
// both.
func Wrap(kv store.KVStore, bus Bus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, bus: bus, logger: logger.With(slog.String("module", "store/feed"))}
}

// Unwrap returns the wrapped store
func (s *Store) Unwrap() store.KVStore {
	return s.kv
}

// Get reads from the wrapped store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return s.kv.Get(ctx, key)
}

// Put writes through and then announces the change. A failed announcement
// is logged; the write itself has already succeeded.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.kv.Put(ctx, key, value); err != nil {
		return err
	}

	payload := store.EncodeChange(store.Change{Key: key, Origin: store.OriginFrom(ctx), At: time.Now()})
	if err := s.bus.Publish(ctx, payload); err != nil {
		s.logger.Warn("publishing change failed", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}

// Changes subscribes to the bus and decodes change events
func (s *Store) Changes(ctx context.Context) (<-chan store.Change, error) {
	payloads, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		for {
			var payload []byte
			select {
			case <-ctx.Done():
				return
			case p, ok := <-payloads:
				if !ok {
					return
				}
				payload = p
			}

			change := store.DecodeChange(payload)
			if change.Key == "" {
				s.logger.Debug("ignoring malformed change event", slog.Int("bytes", len(payload)))
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close closes the bus and the wrapped store
func (s *Store) Close() error {
	return errors.Join(s.bus.Close(), s.kv.Close())
}
