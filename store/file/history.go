package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

const originTrailer = "Origin: "

// history commits every Put into a git repository rooted at the store dir
type history struct {
	repo   *git.Repository
	author string
	email  string
}

func openHistory(dir string) (*history, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("file store: opening history in %s: %w", dir, err)
	}
	return &history{repo: repo, author: "plotstyle", email: "plotstyle@localhost"}, nil
}

func (h *history) commit(key, name, origin string) error {
	wt, err := h.repo.Worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(name); err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}

	msg := "Update " + key
	if origin != "" {
		msg += "\n\n" + originTrailer + origin
	}
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: h.author, Email: h.email, When: time.Now()},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil
	}
	return err
}

func revisionOf(c *object.Commit) store.Revision {
	rev := store.Revision{
		ID: c.Hash.String(),
		At: c.Author.When,
	}
	lines := strings.Split(strings.TrimSpace(c.Message), "\n")
	rev.Message = lines[0]
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, originTrailer) {
			rev.Origin = strings.TrimPrefix(line, originTrailer)
		}
	}
	return rev
}

// History lists the commits touching key, newest first
func (s *Store) History(ctx context.Context, key string, limit int) ([]store.Revision, error) {
	if s.history == nil {
		return nil, store.ErrNoHistory
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	name := nameOf(path)

	s.gitMu.Lock()
	defer s.gitMu.Unlock()

	iter, err := s.history.repo.Log(&git.LogOptions{FileName: &name})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []store.Revision{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: reading history of %s: %w", key, err)
	}
	defer iter.Close()

	revs := []store.Revision{}
	for limit <= 0 || len(revs) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("file store: reading history of %s: %w", key, err)
		}
		revs = append(revs, revisionOf(c))
	}
	return revs, nil
}

// ValueAt returns key as committed in revision id. id may be anything git
// resolves: a full or abbreviated hash, HEAD~2 and so on.
func (s *Store) ValueAt(ctx context.Context, key, id string) ([]byte, error) {
	if s.history == nil {
		return nil, store.ErrNoHistory
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.gitMu.Lock()
	defer s.gitMu.Unlock()

	hash, err := s.history.repo.ResolveRevision(plumbing.Revision(id))
	if err != nil {
		return nil, fmt.Errorf("file store: unknown revision %q: %w", id, err)
	}
	c, err := s.history.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("file store: reading revision %s: %w", id, err)
	}
	f, err := c.File(nameOf(path))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file store: reading %s at %s: %w", key, id, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func (s *Store) record(key, path, origin string) {
	if s.history == nil {
		return
	}
	s.gitMu.Lock()
	defer s.gitMu.Unlock()
	if err := s.history.commit(key, nameOf(path), origin); err != nil {
		s.logger.Warn("recording history failed", slog.String("key", key), slog.Any("error", err))
	}
}
