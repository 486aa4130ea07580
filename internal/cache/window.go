package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sovagpt/nhl/internal/metrics"
)

// Producer computes a fresh value for a Window.
type Producer[T any] func(ctx context.Context) (T, error)

// Window memoizes the result of an expensive producer for a fixed TTL.
// It holds a single slot (not a keyed store) that is only replaced by a
// successful recompute; a failed recompute serves the previous value, even
// when it has expired. At most one producer call is in flight per Window.
type Window[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	name  string
	mu    sync.Mutex // held across the producer call
	value T
	at    time.Time
	has   bool
	stale bool
}

// WindowOption configures a Window.
type WindowOption func(*windowConfig)

type windowConfig struct {
	now  func() time.Time
	name string
}

// WithClock injects the time source.
func WithClock(now func() time.Time) WindowOption {
	return func(c *windowConfig) { c.now = now }
}

// WithName labels the window in metrics.
func WithName(name string) WindowOption {
	return func(c *windowConfig) { c.name = name }
}

// NewWindow returns an empty Window with the given TTL.
func NewWindow[T any](ttl time.Duration, opts ...WindowOption) *Window[T] {
	cfg := windowConfig{now: time.Now, name: "default"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Window[T]{ttl: ttl, now: cfg.now, name: cfg.name}
}

// Get returns the stored value while it is younger than the TTL, otherwise
// calls produce. On producer failure it returns the previous value with a nil
// error when one exists, or the zero value and the producer's error.
func (w *Window[T]) Get(ctx context.Context, produce Producer[T]) (T, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.has && w.now().Sub(w.at) < w.ttl {
		metrics.RecordCacheLookup(w.name, metrics.CacheHit)
		return w.value, nil
	}

	v, err := produce(ctx)
	if err != nil {
		if w.has {
			w.stale = true
			metrics.RecordCacheLookup(w.name, metrics.CacheStale)
			return w.value, nil
		}
		metrics.RecordCacheLookup(w.name, metrics.CacheMiss)
		var zero T
		return zero, err
	}
	metrics.RecordCacheLookup(w.name, metrics.CacheMiss)
	w.value = v
	w.at = w.now()
	w.has = true
	w.stale = false
	return v, nil
}

// Stale reports whether the last Get served an expired value after a failed recompute.
func (w *Window[T]) Stale() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stale
}

// StoredAt returns when the current value was produced, and false when empty.
func (w *Window[T]) StoredAt() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.at, w.has
}
