package mysql

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("PLOTSTYLE_MYSQL_DSN")
	if dsn == "" {
		t.Skip("PLOTSTYLE_MYSQL_DSN not set")
	}
	s, err := New(context.Background(), Config{DSN: dsn, AutoMigrate: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_plot_style_kv.sql", entries[0].Name())
}

func TestNewValidation(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), Config{DSN: "user@tcp(localhost:3306)/db", Table: "styles; DROP TABLE x"}, nil)
	assert.ErrorContains(t, err, "invalid table name")

	_, err = New(context.Background(), Config{DSN: "not a dsn"}, nil)
	assert.Error(t, err)
}

func TestGetPut(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()

	_, err := s.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Put(ctx, key, []byte(`{"rules":[]}`)))
	require.NoError(t, s.Put(store.WithOrigin(ctx, "proc-b"), key, []byte(`{"rules":[{"match":{},"style":{}}]}`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules":[{"match":{},"style":{}}]}`, string(got))
}

func TestStoreRoundTrip(t *testing.T) {
	kv := testStore(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()

	s := store.New(kv, store.WithKey(key))
	rule := style.SeriesRule{Match: style.Match{Parameter: "Q"}, Style: style.SeriesStyle{LineColor: "orange"}}
	require.NoError(t, s.AddRule(ctx, rule))

	reopened := store.New(kv, store.WithKey(key))
	reopened.Init(ctx)
	got, ok := reopened.Resolve(style.Query{Parameter: "Q"})
	require.True(t, ok)
	assert.Equal(t, "orange", got.LineColor)
}
