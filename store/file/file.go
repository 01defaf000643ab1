// Package file stores plot style overrides as one JSON file per key in a
// directory and reports edits made by other processes through fsnotify.
// With History enabled the directory is also a git repository and every
// write is committed.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

const fileExt = ".json"

// Config holds the file backend settings
type Config struct {
	Dir     string `json:"dir" yaml:"dir"`
	History bool   `json:"history" yaml:"history"`
}

type lastWrite struct {
	origin  string
	content []byte
}

// Store implements store.KVStore and store.Notifier on a directory
type Store struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]lastWrite

	gitMu   sync.Mutex
	history *history
}

// New creates the directory if needed and returns a store over it
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("file store: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: creating %s: %w", cfg.Dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		dir:    cfg.Dir,
		logger: logger.With(slog.String("module", "store/file")),
		last:   make(map[string]lastWrite),
	}
	if cfg.History {
		h, err := openHistory(cfg.Dir)
		if err != nil {
			return nil, err
		}
		s.history = h
	}
	return s, nil
}

func nameOf(path string) string {
	return filepath.Base(path)
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("file store: invalid key %q", key)
	}
	return filepath.Join(s.dir, key+fileExt), nil
}

// Get reads the file for key
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file store: reading %s: %w", path, err)
	}
	return data, nil
}

// Put replaces the file for key. The value is written to a temporary file
// and renamed into place so readers never see a partial write.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("file store: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("file store: writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("file store: syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file store: closing %s: %w", tmpName, err)
	}

	s.mu.Lock()
	s.last[key] = lastWrite{origin: store.OriginFrom(ctx), content: append([]byte(nil), value...)}
	s.mu.Unlock()

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("file store: replacing %s: %w", path, err)
	}
	s.record(key, path, store.OriginFrom(ctx))
	return nil
}

// Changes watches the directory and reports a Change for every key file
// that is created, written or renamed into place. Writes whose content
// matches this store's own last Put carry that Put's origin.
func (s *Store) Changes(ctx context.Context) (<-chan store.Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file store: creating watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("file store: watching %s: %w", s.dir, err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change, ok := s.changeFor(event)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("file watcher error", slog.Any("error", err))
			}
		}
	}()

	return out, nil
}

func (s *Store) changeFor(event fsnotify.Event) (store.Change, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return store.Change{}, false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
		return store.Change{}, false
	}
	key := strings.TrimSuffix(name, fileExt)

	change := store.Change{Key: key, At: time.Now()}
	s.mu.Lock()
	last, ok := s.last[key]
	s.mu.Unlock()
	if ok {
		if current, err := os.ReadFile(event.Name); err == nil && bytes.Equal(current, last.content) {
			change.Origin = last.origin
		}
	}
	return change, true
}

// Close is a no-op; watchers stop with their context
func (s *Store) Close() error {
	return nil
}
