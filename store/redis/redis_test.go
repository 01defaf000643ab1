package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("PLOTSTYLE_REDIS_ADDR")
	if addr == "" {
		t.Skip("PLOTSTYLE_REDIS_ADDR not set")
	}
	s, err := New(context.Background(), Config{Addr: addr, Channel: "plotstyle:test:" + uuid.NewString()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetPut(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := "plotstyle:test:" + uuid.NewString()
	t.Cleanup(func() { s.client.Del(context.Background(), key) })

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`{"rules":[]}`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"rules":[]}`, string(got))
}

func TestWatchAcrossStores(t *testing.T) {
	kv := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	key := "plotstyle:test:" + uuid.NewString()
	t.Cleanup(func() { kv.client.Del(context.Background(), key) })

	writer := store.New(kv, store.WithKey(key))
	writer.Init(ctx)
	reader := store.New(kv, store.WithKey(key))
	reader.Init(ctx)

	go func() { _ = reader.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, writer.AddRule(ctx, style.SeriesRule{
		Match: style.Match{Kind: style.KindTimeSeries, Parameter: "PRECIP"},
		Style: style.SeriesStyle{LineColor: "teal"},
	}))

	require.Eventually(t, func() bool {
		got, ok := reader.Resolve(style.Query{Kind: style.KindTimeSeries, Parameter: "PRECIPITATION"})
		return ok && got.LineColor == "teal"
	}, 2*time.Second, 20*time.Millisecond)
}
