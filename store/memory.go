package store

import (
	"context"
	"sync"
	"time"
)

// Memory implements KVStore in memory with an in-process change feed.
// Useful for testing and for running on base defaults alone.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte

	subsMu sync.Mutex
	subs   map[chan Change]struct{}
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
		subs:   make(map[chan Change]struct{}),
	}
}

// Get returns a copy of the value stored under key
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a copy of value and notifies watchers
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()

	m.publish(Change{Key: key, Origin: OriginFrom(ctx), At: time.Now()})
	return nil
}

// Changes returns a feed of writes that closes when ctx is done.
func (m *Memory) Changes(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 16)

	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subsMu.Lock()
		delete(m.subs, ch)
		close(ch)
		m.subsMu.Unlock()
	}()

	return ch, nil
}

func (m *Memory) publish(c Change) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for ch := range m.subs {
		select {
		case ch <- c:
		default:
			// slow watcher; a later reload will pick the value up anyway
		}
	}
}

// Close drops every value
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string][]byte)
	return nil
}
