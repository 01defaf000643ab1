package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dlblack/sad-sandbox-sub000/style"
)

// Store holds the merged rule set (base followed by user overrides) and
// persists the user overrides as one JSON value in a KVStore.
//
// Reads of the merged set never block. Mutations are serialized and always
// re-read the persisted overrides before writing, so two edits in one process
// cannot lose each other.
type Store struct {
	kv     KVStore
	key    string
	base   style.PlotStyleDefaults
	origin string
	logger *slog.Logger

	merged  atomic.Pointer[style.PlotStyleDefaults]
	writeMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[uint64]func()
	nextSub uint64
}

// Option configures a Store
type Option func(*Store)

// WithKey sets the key the overrides live under
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithBase replaces the built-in base rules
func WithBase(base style.PlotStyleDefaults) Option {
	return func(s *Store) {
		s.base = base.Clone()
	}
}

// WithLogger sets the logger; the store adds its own module attribute
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With(slog.String("module", "store"))
		}
	}
}

// WithOriginID fixes the id used to recognize this store's own writes in a
// change feed. A random id is used otherwise.
func WithOriginID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.origin = id
		}
	}
}

// New creates a store over kv. A nil kv gives a store that only ever serves
// the base rules and whatever is saved during the process lifetime.
func New(kv KVStore, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultKey,
		base:   BaseDefaults(),
		origin: uuid.NewString(),
		logger: slog.Default().With(slog.String("module", "store")),
		subs:   make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	base := s.base.Clone()
	s.merged.Store(&base)
	return s
}

// Origin returns the id stamped on this store's writes
func (s *Store) Origin() string {
	return s.origin
}

// Key returns the key the overrides live under
func (s *Store) Key() string {
	return s.key
}

// Base returns a copy of the base rules
func (s *Store) Base() style.PlotStyleDefaults {
	return s.base.Clone()
}

// Init loads the persisted overrides and publishes base ++ user
func (s *Store) Init(ctx context.Context) {
	user := s.LoadUserOverrides(ctx)
	s.SetMerged(MergeDefaults(s.base, user))
	s.logger.Info("plot style defaults loaded",
		slog.Int("base_rules", len(s.base.Rules)),
		slog.Int("user_rules", len(user.Rules)))
}

// LoadUserOverrides reads the persisted overrides. A missing key, a backend
// failure or malformed content all give an empty rule list.
func (s *Store) LoadUserOverrides(ctx context.Context) style.PlotStyleDefaults {
	empty := style.PlotStyleDefaults{Rules: []style.SeriesRule{}}
	if s.kv == nil {
		return empty
	}

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("reading user overrides failed", slog.String("key", s.key), slog.Any("error", err))
		}
		return empty
	}

	user, err := decodeOverrides(raw)
	if err != nil {
		s.logger.Warn("discarding malformed user overrides", slog.String("key", s.key), slog.Any("error", err))
		return empty
	}
	return user
}

func decodeOverrides(raw []byte) (style.PlotStyleDefaults, error) {
	var user style.PlotStyleDefaults
	if err := json.Unmarshal(raw, &user); err != nil {
		return style.PlotStyleDefaults{}, err
	}
	if user.Rules == nil {
		user.Rules = []style.SeriesRule{}
	}
	return user, nil
}

// SaveUserOverrides persists user and publishes base ++ user. When the
// backend write fails the error is returned and the merged set is left as
// it was.
func (s *Store) SaveUserOverrides(ctx context.Context, user style.PlotStyleDefaults) error {
	return s.mutate(func() error {
		return s.saveLocked(ctx, user)
	})
}

// mutate runs fn under writeMu and notifies subscribers once the lock is
// released, so a subscriber may itself edit the overrides.
func (s *Store) mutate(fn func() error) error {
	s.writeMu.Lock()
	err := fn()
	s.writeMu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) saveLocked(ctx context.Context, user style.PlotStyleDefaults) error {
	user = user.Clone()
	if user.Rules == nil {
		user.Rules = []style.SeriesRule{}
	}

	if s.kv != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("encoding user overrides: %w", err)
		}
		if err := s.kv.Put(WithOrigin(ctx, s.origin), s.key, raw); err != nil {
			s.logger.Error("saving user overrides failed", slog.String("key", s.key), slog.Any("error", err))
			return fmt.Errorf("saving user overrides: %w", err)
		}
	}

	s.publish(MergeDefaults(s.base, user))
	s.logger.Debug("user overrides saved", slog.Int("user_rules", len(user.Rules)))
	return nil
}

// UserOverrides is an alias for LoadUserOverrides
func (s *Store) UserOverrides(ctx context.Context) style.PlotStyleDefaults {
	return s.LoadUserOverrides(ctx)
}

// AddRule appends rule to the persisted overrides
func (s *Store) AddRule(ctx context.Context, rule style.SeriesRule) error {
	if err := rule.Style.Validate(); err != nil {
		return err
	}
	return s.mutate(func() error {
		user := s.LoadUserOverrides(ctx)
		return s.saveLocked(ctx, user.WithRule(rule))
	})
}

// ReplaceRule swaps the override at index i
func (s *Store) ReplaceRule(ctx context.Context, i int, rule style.SeriesRule) error {
	if err := rule.Style.Validate(); err != nil {
		return err
	}
	return s.mutate(func() error {
		user := s.LoadUserOverrides(ctx)
		next, ok := user.WithReplaced(i, rule)
		if !ok {
			return fmt.Errorf("%w: %d of %d", ErrRuleIndex, i, len(user.Rules))
		}
		return s.saveLocked(ctx, next)
	})
}

// RemoveRule deletes the override at index i
func (s *Store) RemoveRule(ctx context.Context, i int) error {
	return s.mutate(func() error {
		user := s.LoadUserOverrides(ctx)
		next, ok := user.Without(i)
		if !ok {
			return fmt.Errorf("%w: %d of %d", ErrRuleIndex, i, len(user.Rules))
		}
		return s.saveLocked(ctx, next)
	})
}

// Reload re-reads the persisted overrides and republishes
func (s *Store) Reload(ctx context.Context) {
	_ = s.mutate(func() error {
		user := s.LoadUserOverrides(ctx)
		s.publish(MergeDefaults(s.base, user))
		s.logger.Info("plot style defaults reloaded", slog.Int("user_rules", len(user.Rules)))
		return nil
	})
}

// Merged returns the last published merged set. The value is shared and
// must not be modified.
func (s *Store) Merged() *style.PlotStyleDefaults {
	return s.merged.Load()
}

// SetMerged replaces the merged set and notifies subscribers
func (s *Store) SetMerged(d style.PlotStyleDefaults) {
	s.publish(d)
	s.notify()
}

// publish stores a deep copy of d without notifying
func (s *Store) publish(d style.PlotStyleDefaults) {
	next := d.Clone()
	s.merged.Store(&next)
}

// Resolve resolves query against the merged set
func (s *Store) Resolve(query style.Query) (style.SeriesStyle, bool) {
	return s.Merged().Resolve(query)
}

// Subscribe registers fn to run after every publish. Subscribers run after
// the write lock is released and may call back into the store. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		s.callSubscriber(fn)
	}
}

func (s *Store) callSubscriber(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("plot style subscriber panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

// Watch follows the backend's change feed and reloads whenever another
// process writes the overrides key. It blocks until ctx is done or the feed
// closes.
func (s *Store) Watch(ctx context.Context) error {
	notifier, ok := s.kv.(Notifier)
	if !ok {
		return ErrNoChangeFeed
	}

	changes, err := notifier.Changes(ctx)
	if err != nil {
		return fmt.Errorf("opening change feed: %w", err)
	}
	s.logger.Info("watching plot style overrides", slog.String("key", s.key), slog.String("origin", s.origin))

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Key != s.key {
				continue
			}
			if change.Origin != "" && change.Origin == s.origin {
				continue
			}
			s.logger.Debug("plot style overrides changed", slog.String("origin", change.Origin))
			s.Reload(ctx)
		}
	}
}
