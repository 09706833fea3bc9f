package deckwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/betbot/metricdeck/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deckV1 = `title: Ops
interval_ms: 1000
metrics:
  - id: runs
    label: Runs
    value: 10
`

const deckV2 = `title: Ops v2
interval_ms: 2000
metrics:
  - id: runs
    label: Runs
    value: 11
  - id: failed
    label: Failed
    value: 2
`

type recorder struct {
	mu   sync.Mutex
	cfgs []*config.Config
}

func (r *recorder) onReload(cfg *config.Config) {
	r.mu.Lock()
	r.cfgs = append(r.cfgs, cfg)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cfgs)
}

func (r *recorder) last() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cfgs) == 0 {
		return nil
	}
	return r.cfgs[len(r.cfgs)-1]
}

func writeDeck(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("", nil)
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	writeDeck(t, path, deckV1)

	rec := &recorder{}
	w, err := New(path, rec.onReload, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeDeck(t, path, deckV2)

	require.Eventually(t, func() bool {
		cfg := rec.last()
		return cfg != nil && len(cfg.Metrics) == 2
	}, 3*time.Second, 10*time.Millisecond)

	cfg := rec.last()
	assert.Equal(t, "Ops v2", cfg.Title)
	assert.Equal(t, 2*time.Second, cfg.Carousel.Interval)
}

func TestWatcher_BadDeckKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	writeDeck(t, path, deckV1)

	var attempts atomic.Int32
	loader := func(p string) (*config.Config, error) {
		attempts.Add(1)
		return config.LoadFromFile(p)
	}
	rec := &recorder{}
	w, err := New(path, rec.onReload, WithDebounce(10*time.Millisecond), WithLoader(loader))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeDeck(t, path, "metrics:\n  - id: a\n    label: \"\"\n")

	require.Eventually(t, func() bool { return attempts.Load() > 0 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "invalid deck is not delivered")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	writeDeck(t, path, deckV1)

	var attempts atomic.Int32
	loader := func(string) (*config.Config, error) {
		attempts.Add(1)
		return &config.Config{}, nil
	}
	w, err := New(path, nil, WithDebounce(5*time.Millisecond), WithLoader(loader))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeDeck(t, filepath.Join(dir, "other.yaml"), deckV2)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), attempts.Load())
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	writeDeck(t, path, deckV1)

	mock := clock.NewMock()
	var attempts atomic.Int32
	loader := func(string) (*config.Config, error) {
		attempts.Add(1)
		return &config.Config{}, nil
	}
	w, err := New(path, nil, WithClock(mock), WithDebounce(time.Second), WithLoader(loader))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	w.schedule()
	mock.Add(500 * time.Millisecond)
	w.schedule()
	mock.Add(500 * time.Millisecond)
	w.schedule()
	assert.Equal(t, int32(0), attempts.Load())

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	writeDeck(t, path, deckV1)

	w, err := New(path, nil)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Path()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "second start is rejected")

	w.Stop()
	w.Stop()
}
