package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/internal/config"
	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/store/feed"
	"github.com/dlblack/sad-sandbox-sub000/store/file"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, config.StorageConfig{Type: config.StorageMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, kv)

	kv, err = Open(ctx, config.StorageConfig{Type: config.StorageFile, File: file.Config{Dir: t.TempDir()}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, kv)

	_, err = Open(ctx, config.StorageConfig{Type: "etcd"}, nil)
	assert.Error(t, err)

	kv, err = Open(ctx, config.StorageConfig{
		Type: config.StorageMemory,
		Feed: feed.Config{Type: feed.TypeKafka, Kafka: feed.KafkaConfig{Brokers: []string{"localhost:9092"}}},
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &feed.Store{}, kv)
	assert.Implements(t, (*store.Notifier)(nil), kv)
	assert.NoError(t, kv.Close())

	_, err = Open(ctx, config.StorageConfig{Type: config.StorageMemory, Feed: feed.Config{Type: "nats"}}, nil)
	assert.Error(t, err)
}

func TestBase(t *testing.T) {
	base, err := Base(config.DefaultsConfig{})
	require.NoError(t, err)
	assert.Equal(t, store.BaseDefaults(), base)

	withPresets, err := Base(config.DefaultsConfig{IncludePeakFlowFrequency: true})
	require.NoError(t, err)
	assert.Len(t, withPresets.Rules, 7)

	path := filepath.Join(t.TempDir(), "base.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - match: {kind: scatter}
    style: {drawPoints: true, pointSymbol: circle}
`), 0o644))
	fromFile, err := Base(config.DefaultsConfig{File: path})
	require.NoError(t, err)
	require.Len(t, fromFile.Rules, 1)
	assert.Equal(t, style.KindScatter, fromFile.Rules[0].Match.Kind)

	_, err = Base(config.DefaultsConfig{File: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.File.Dir = t.TempDir()

	s, kv, err := NewStore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer kv.Close()

	got, ok := s.Resolve(style.Query{Kind: style.KindFrequencyCurve, SeriesName: "CL-05"})
	require.True(t, ok)
	assert.Equal(t, "5th Confidence Limit", got.Label)
}
