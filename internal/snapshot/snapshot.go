// Package snapshot rebuilds the games response on a schedule, stores it and
// publishes its HIGH edges.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/sovagpt/nhl/internal/metrics"
	"github.com/sovagpt/nhl/internal/pipeline"
)

const defaultTimeout = 2 * time.Minute

// Builder builds a games response.
type Builder interface {
	Build(ctx context.Context) (*pipeline.Response, error)
}

// Store persists a snapshot; *cache.Store satisfies it.
type Store interface {
	Write(ctx context.Context, v any) error
}

// Publisher announces edges; *alert.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, games []pipeline.Game, now time.Time) (int, error)
}

// Job is one snapshot refresh.
type Job struct {
	builder   Builder
	store     Store
	publisher Publisher
	file      string
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Job.
type Option func(*Job)

// WithStore writes each snapshot to s.
func WithStore(s Store) Option { return func(j *Job) { j.store = s } }

// WithPublisher publishes each snapshot's HIGH edges.
func WithPublisher(p Publisher) Option { return func(j *Job) { j.publisher = p } }

// WithFile also writes each snapshot to path as JSON.
func WithFile(path string) Option { return func(j *Job) { j.file = path } }

// WithTimeout bounds one run.
func WithTimeout(d time.Duration) Option {
	return func(j *Job) {
		if d > 0 {
			j.timeout = d
		}
	}
}

// WithClock sets the clock stamped on alerts.
func WithClock(now func() time.Time) Option { return func(j *Job) { j.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Job) {
		if l != nil {
			j.logger = l
		}
	}
}

// NewJob returns a job over b.
func NewJob(b Builder, opts ...Option) *Job {
	j := &Job{builder: b, timeout: defaultTimeout, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run builds once and fans the result out to the store, the file and the
// publisher. A failed build writes nothing, so the previous snapshot survives.
func (j *Job) Run(ctx context.Context) (*pipeline.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	resp, err := j.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	if j.store != nil {
		if err := j.store.Write(ctx, resp); err != nil {
			return resp, fmt.Errorf("store snapshot: %w", err)
		}
	}
	if j.file != "" {
		if err := WriteFile(j.file, resp); err != nil {
			return resp, err
		}
	}
	metrics.RecordSnapshotSaved()

	published := 0
	if j.publisher != nil {
		published, err = j.publisher.Publish(ctx, resp.Games, j.now())
		if err != nil {
			// the snapshot itself is saved
			j.logger.Warn("snapshot: publish alerts", "error", err)
		}
	}
	j.logger.Info("snapshot saved", "games", len(resp.Games), "alerts", published, "duration", time.Since(start))
	return resp, nil
}

// Schedule registers j on s with a cron spec. Runs never overlap.
func Schedule(ctx context.Context, s *gocron.Scheduler, spec string, j *Job) (*gocron.Job, error) {
	job, err := s.Cron(spec).SingletonMode().Do(func() {
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error("snapshot: run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule snapshot %q: %w", spec, err)
	}
	j.logger.Info("snapshot cron scheduled", "spec", spec)
	return job, nil
}

// WriteFile writes resp as indented JSON, replacing path atomically.
func WriteFile(path string, resp *pipeline.Response) error {
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
