// Package store keeps the base, user and merged plot style rule sets and
// persists user overrides through a pluggable key-value backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by KVStore.Get when the key is absent
	ErrNotFound = errors.New("key not found")
	// ErrRuleIndex is returned when a rule index is out of range
	ErrRuleIndex = errors.New("rule index out of range")
	// ErrNoChangeFeed is returned by Watch when the backend cannot report
	// changes made by other processes
	ErrNoChangeFeed = errors.New("backend has no change feed")
	// ErrNoHistory is returned when the backend keeps no revisions
	ErrNoHistory = errors.New("backend keeps no history")
)

// KVStore is the persistent key-value collaborator. Values are opaque bytes;
// every Put replaces the whole value.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Change reports that key was written, possibly by another process.
type Change struct {
	Key    string    `json:"key"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// Notifier is implemented by backends that can report writes made by other
// processes sharing the same store.
type Notifier interface {
	Changes(ctx context.Context) (<-chan Change, error)
}

type originKey struct{}

// WithOrigin tags ctx with the writing process's origin id. Backends with a
// change feed stamp the id on the event so a process can skip its own
// writes.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the origin id set by WithOrigin, or ""
func OriginFrom(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}

// EncodeChange and DecodeChange give every backend the same wire form for
// change events.
func EncodeChange(c Change) []byte {
	raw, _ := json.Marshal(c)
	return raw
}

// DecodeChange parses a change event. A payload that is not a JSON object is
// taken to be the bare key.
func DecodeChange(payload []byte) Change {
	var c Change
	if err := json.Unmarshal(payload, &c); err != nil || c.Key == "" {
		return Change{Key: string(payload), At: time.Now()}
	}
	return c
}

// Revision is one recorded version of a key
type Revision struct {
	ID      string    `json:"id" yaml:"id"`
	At      time.Time `json:"at" yaml:"at"`
	Origin  string    `json:"origin,omitempty" yaml:"origin,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

// Versioned is implemented by backends that keep every written value
type Versioned interface {
	// History lists revisions of key, newest first. limit <= 0 means all.
	History(ctx context.Context, key string, limit int) ([]Revision, error)
	// ValueAt returns key as of revision id
	ValueAt(ctx context.Context, key, id string) ([]byte, error)
}

// Unwrapper is implemented by stores that decorate another KVStore
type Unwrapper interface {
	Unwrap() KVStore
}

// AsVersioned finds a Versioned backend in kv or anything it wraps
func AsVersioned(kv KVStore) (Versioned, bool) {
	for kv != nil {
		if v, ok := kv.(Versioned); ok {
			return v, true
		}
		u, ok := kv.(Unwrapper)
		if !ok {
			return nil, false
		}
		kv = u.Unwrap()
	}
	return nil, false
}
