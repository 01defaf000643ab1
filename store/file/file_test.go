package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

func TestGetPut(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "overrides")
	s, err := New(Config{Dir: dir}, nil)
	require.NoError(t, err)

	_, err = s.Get(ctx, "plotStyleOverridesV1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, "plotStyleOverridesV1", []byte(`{"rules":[]}`)))
	got, err := s.Get(ctx, "plotStyleOverridesV1")
	require.NoError(t, err)
	assert.Equal(t, `{"rules":[]}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "plotStyleOverridesV1.json", entries[0].Name())

	_, err = s.Get(ctx, "../escape")
	assert.Error(t, err)
	assert.Error(t, s.Put(ctx, "", nil))
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestWatchAcrossStores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	kvA, err := New(Config{Dir: dir}, nil)
	require.NoError(t, err)
	kvB, err := New(Config{Dir: dir}, nil)
	require.NoError(t, err)

	a := store.New(kvA)
	a.Init(ctx)
	b := store.New(kvB)
	b.Init(ctx)

	go func() { _ = b.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, a.AddRule(ctx, style.SeriesRule{
		Match: style.Match{Kind: style.KindPairedXY, Parameter: "STAGE"},
		Style: style.SeriesStyle{LineColor: "purple"},
	}))

	require.Eventually(t, func() bool {
		got, ok := b.Resolve(style.Query{Kind: style.KindPairedXY, Parameter: "ELEV"})
		return ok && got.LineColor == "purple"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestOwnWritesCarryOrigin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	changes, err := s.Changes(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Put(store.WithOrigin(ctx, "me"), "k", []byte("v")))

	select {
	case change := <-changes:
		assert.Equal(t, "k", change.Key)
		assert.Equal(t, "me", change.Origin)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(Config{Dir: dir, History: true}, nil)
	require.NoError(t, err)

	revs, err := s.History(ctx, "overrides", 0)
	require.NoError(t, err)
	assert.Empty(t, revs, "a fresh repository has no history")

	require.NoError(t, s.Put(store.WithOrigin(ctx, "proc-a"), "overrides", []byte(`{"rules":[]}`)))
	require.NoError(t, s.Put(ctx, "overrides", []byte(`{"rules":[]}`)), "an unchanged value is not an error")
	require.NoError(t, s.Put(store.WithOrigin(ctx, "proc-b"), "overrides", []byte(`{"rules":[{"match":{},"style":{}}]}`)))
	require.NoError(t, s.Put(ctx, "other", []byte(`{}`)))

	revs, err = s.History(ctx, "overrides", 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "proc-b", revs[0].Origin)
	assert.Equal(t, "Update overrides", revs[0].Message)
	assert.Equal(t, "proc-a", revs[1].Origin)

	limited, err := s.History(ctx, "overrides", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	old, err := s.ValueAt(ctx, "overrides", revs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, `{"rules":[]}`, string(old))

	short, err := s.ValueAt(ctx, "overrides", revs[1].ID[:10])
	require.NoError(t, err)
	assert.Equal(t, string(old), string(short))

	_, err = s.ValueAt(ctx, "overrides", "no-such-revision")
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{".git", "overrides.json", "other.json"}, names)
}

func TestNoHistory(t *testing.T) {
	s, err := New(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	_, err = s.History(context.Background(), "overrides", 0)
	assert.ErrorIs(t, err, store.ErrNoHistory)
	_, err = s.ValueAt(context.Background(), "overrides", "HEAD")
	assert.ErrorIs(t, err, store.ErrNoHistory)

	v, ok := store.AsVersioned(s)
	assert.True(t, ok, "the type is versioned even when history is off")
	assert.NotNil(t, v)
}
