package feed

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/style"
)

// localBus fans payloads out to in-process subscribers
type localBus struct {
	mu      sync.Mutex
	subs    []chan []byte
	failPub bool
	closed  bool
}

func (b *localBus) Publish(ctx context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPub {
		return errors.New("bus down")
	}
	for _, ch := range b.subs {
		ch <- payload
	}
	return nil
}

func (b *localBus) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ch := make(chan []byte, 8)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch, nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// quietKV hides Memory's own change feed
type quietKV struct{ m *store.Memory }

func (q quietKV) Get(ctx context.Context, key string) ([]byte, error) { return q.m.Get(ctx, key) }
func (q quietKV) Put(ctx context.Context, key string, v []byte) error  { return q.m.Put(ctx, key, v) }
func (q quietKV) Close() error                                        { return q.m.Close() }

func TestPutPublishes(t *testing.T) {
	bus := &localBus{}
	s := Wrap(quietKV{store.NewMemory()}, bus, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := s.Changes(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Put(store.WithOrigin(ctx, "proc-a"), "k", []byte("v")))

	select {
	case c := <-changes:
		assert.Equal(t, "k", c.Key)
		assert.Equal(t, "proc-a", c.Origin)
	case <-time.After(time.Second):
		t.Fatal("no change event")
	}

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, s.Close())
	assert.True(t, bus.closed)
}

func TestPublishFailureKeepsWrite(t *testing.T) {
	bus := &localBus{failPub: true}
	s := Wrap(quietKV{store.NewMemory()}, bus, nil)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestWatchOverBus(t *testing.T) {
	bus := &localBus{}
	kv := Wrap(quietKV{store.NewMemory()}, bus, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := store.New(kv)
	writer := store.New(kv)
	reader.Init(ctx)

	reloaded := make(chan struct{}, 1)
	reader.Subscribe(func() { reloaded <- struct{}{} })

	done := make(chan error, 1)
	go func() { done <- reader.Watch(ctx) }()

	rule := style.SeriesRule{Match: style.Match{SeriesName: "OBS"}, Style: style.SeriesStyle{LineColor: "teal"}}
	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.subs) == 1
	}, time.Second, 10*time.Millisecond)
	require.NoError(t, writer.AddRule(ctx, rule))

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not reload")
	}
	got, ok := reader.Resolve(style.Query{SeriesName: "obs"})
	require.True(t, ok)
	assert.Equal(t, "teal", got.LineColor)

	cancel()
	assert.NoError(t, <-done)
}

func TestOpen(t *testing.T) {
	bus, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, bus)

	_, err = Open(context.Background(), Config{Type: "carrier-pigeon"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Type: TypeKafka})
	assert.Error(t, err, "brokers are required")

	_, err = Open(context.Background(), Config{Type: TypeAMQP})
	assert.Error(t, err, "url is required")
}

func roundTrip(t *testing.T, bus Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	payloads, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	want := []byte(`{"key":"` + uuid.NewString() + `"}`)
	// the subscriber may attach after the first publish
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	require.NoError(t, bus.Publish(ctx, want))
	for {
		select {
		case got := <-payloads:
			if string(got) == string(want) {
				return
			}
		case <-tick.C:
			require.NoError(t, bus.Publish(ctx, want))
		case <-ctx.Done():
			t.Fatal("payload never arrived")
		}
	}
}

func TestKafkaBus(t *testing.T) {
	brokers := os.Getenv("PLOTSTYLE_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("PLOTSTYLE_KAFKA_BROKERS not set")
	}
	bus, err := NewKafka(KafkaConfig{Brokers: strings.Split(brokers, ","), Topic: "plotstyle-test-" + uuid.NewString()})
	require.NoError(t, err)
	defer bus.Close()
	roundTrip(t, bus)
}

func TestAMQPBus(t *testing.T) {
	url := os.Getenv("PLOTSTYLE_AMQP_URL")
	if url == "" {
		t.Skip("PLOTSTYLE_AMQP_URL not set")
	}
	bus, err := NewAMQP(context.Background(), AMQPConfig{URL: url, Exchange: "plotstyle.test." + uuid.NewString()})
	require.NoError(t, err)
	defer bus.Close()
	roundTrip(t, bus)
}
