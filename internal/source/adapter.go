// Package source wraps upstream clients so that a fetch never fails the pipeline:
// every call is time-bounded, panics are recovered, and failures become an empty result.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sovagpt/nhl/internal/cache"
	"github.com/sovagpt/nhl/internal/metrics"
)

// DefaultTimeout bounds one fetch when WithTimeout is not given.
const DefaultTimeout = 20 * time.Second

// FetchFunc is an upstream call that may fail.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Source is what the pipeline consumes. Fetch never fails; an empty slice means nothing usable.
type Source[T any] interface {
	Name() string
	Fetch(ctx context.Context) []T
}

// Adapter is the standard Source around a FetchFunc.
type Adapter[T any] struct {
	name    string
	fetch   FetchFunc[T]
	timeout time.Duration
	window  *cache.Window[[]T]
	logger  *slog.Logger
}

type options struct {
	timeout  time.Duration
	cacheTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*options)

// WithTimeout bounds a single Fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCache memoizes successful results for ttl and serves the last good result on failure.
func WithCache(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithClock sets the cache clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger; nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New wraps fn as a named never-fail source.
func New[T any](name string, fn FetchFunc[T], opts ...Option) *Adapter[T] {
	o := options{timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	a := &Adapter[T]{
		name:    name,
		fetch:   fn,
		timeout: o.timeout,
		logger:  o.logger.With("source", name),
	}
	if o.cacheTTL > 0 {
		a.window = cache.NewWindow[[]T](o.cacheTTL, cache.WithName(name), cache.WithClock(o.now))
	}
	return a
}

// Name returns the source name used in logs, metrics and the response sources map.
func (a *Adapter[T]) Name() string { return a.name }

type result[T any] struct {
	records  []T
	err      error
	panicked bool
}

// Fetch runs the upstream call bounded by the adapter timeout. It returns an empty
// (non-nil) slice on timeout, error or panic, and never blocks past the timeout
// even when the upstream ignores its context.
func (a *Adapter[T]) Fetch(ctx context.Context) []T {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		var r result[T]
		defer func() {
			if p := recover(); p != nil {
				r = result[T]{err: fmt.Errorf("panic: %v", p), panicked: true}
			}
			done <- r
		}()
		r.records, r.err = a.run(ctx)
	}()

	var r result[T]
	select {
	case r = <-done:
	case <-ctx.Done():
		r = result[T]{err: ctx.Err()}
	}
	elapsed := float64(time.Since(start).Milliseconds())

	switch {
	case r.panicked:
		a.logger.Error("source: fetch panicked", "error", r.err)
		metrics.RecordAdapterFetch(a.name, metrics.OutcomePanic, elapsed, 0)
		return []T{}
	case r.err != nil:
		a.logger.Warn("source: fetch failed", "error", r.err, "elapsed_ms", elapsed)
		metrics.RecordAdapterFetch(a.name, metrics.OutcomeError, elapsed, 0)
		return []T{}
	case len(r.records) == 0:
		a.logger.Info("source: no records")
		metrics.RecordAdapterFetch(a.name, metrics.OutcomeEmpty, elapsed, 0)
		return []T{}
	}
	a.logger.Debug("source: fetched", "records", len(r.records), "elapsed_ms", elapsed)
	metrics.RecordAdapterFetch(a.name, metrics.OutcomeOK, elapsed, len(r.records))
	return r.records
}

func (a *Adapter[T]) run(ctx context.Context) ([]T, error) {
	if a.window == nil {
		return a.fetch(ctx)
	}
	return a.window.Get(ctx, cache.Producer[[]T](a.fetch))
}
