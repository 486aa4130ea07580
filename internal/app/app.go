// Package app wires configuration into the running components.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/redis/go-redis/v9"

	"github.com/sovagpt/nhl/internal/alert"
	"github.com/sovagpt/nhl/internal/api"
	"github.com/sovagpt/nhl/internal/cache"
	"github.com/sovagpt/nhl/internal/config"
	"github.com/sovagpt/nhl/internal/edge"
	"github.com/sovagpt/nhl/internal/fetch"
	"github.com/sovagpt/nhl/internal/goalie"
	"github.com/sovagpt/nhl/internal/metrics"
	"github.com/sovagpt/nhl/internal/odds"
	"github.com/sovagpt/nhl/internal/pipeline"
	"github.com/sovagpt/nhl/internal/schedule"
	"github.com/sovagpt/nhl/internal/snapshot"
	"github.com/sovagpt/nhl/internal/source"
)

// SourceSchedule is the schedule's key in the response sources map.
const SourceSchedule = "schedule"

// App holds the wired components.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	pipeline  *pipeline.Pipeline
	redis     *redis.Client
	store     *cache.Store
	publisher *alert.Publisher
}

// Option configures New.
type Option func(*options)

type options struct {
	now      func() time.Time
	renderer goalie.Renderer
	redis    *redis.Client
}

// WithClock fixes the clock (schedule date and timestamps).
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithRenderer replaces the headless browser used for DailyFaceoff.
func WithRenderer(r goalie.Renderer) Option { return func(o *options) { o.renderer = r } }

// WithRedis uses client instead of dialing cfg.Redis.
func WithRedis(client *redis.Client) Option { return func(o *options) { o.redis = client } }

// NewLogger returns a JSON logger at level (debug|info|warn|error).
func NewLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

// ConfigureMetrics rebuilds the process-wide collectors from cfg.Metrics. Call
// it once at startup, before the HTTP server is built.
func ConfigureMetrics(cfg *config.Config) {
	metrics.Configure(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithSubsystem(cfg.Metrics.Subsystem),
		metrics.WithHistogramBuckets(cfg.Metrics.Buckets),
	)
}

// New builds every component from cfg. Redis is only dialed when configured.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := fetch.New(
		fetch.WithTimeout(cfg.HTTP.Timeout),
		fetch.WithUserAgent(cfg.HTTP.UserAgent),
		fetch.WithMaxBody(cfg.HTTP.MaxBodyBytes),
	)
	src := cfg.Sources

	sched := schedule.NewClient(f, schedule.WithBaseURL(src.Schedule.BaseURL), schedule.WithClock(o.now))
	schedSrc := source.New(SourceSchedule, sched.TodaysGames,
		source.WithTimeout(src.Schedule.Timeout),
		source.WithCache(src.Schedule.CacheTTL),
		source.WithClock(o.now),
		source.WithLogger(logger),
	)

	var goalies []source.Source[goalie.Record]
	if src.DailyFaceoff.Enabled {
		dfoOpts := []goalie.DFOOption{goalie.WithPageURL(src.DailyFaceoff.URL), goalie.WithDFOLogger(logger)}
		if o.renderer != nil {
			dfoOpts = append(dfoOpts, goalie.WithRenderer(o.renderer))
		}
		dfo := goalie.NewDailyFaceoff(goalie.BrowserConfig{
			RemoteURL:  src.DailyFaceoff.ChromeURL,
			ExecPath:   src.DailyFaceoff.ChromePath,
			UserAgent:  cfg.HTTP.UserAgent,
			NavTimeout: src.DailyFaceoff.NavTimeout,
			Settle:     src.DailyFaceoff.Settle,
		}, dfoOpts...)
		goalies = append(goalies, source.New(goalie.SourceDFO, dfo.Starters,
			source.WithTimeout(src.DailyFaceoff.Timeout),
			source.WithCache(src.DailyFaceoff.CacheTTL),
			source.WithClock(o.now),
			source.WithLogger(logger),
		))
	}
	if src.GoaliePost.Enabled {
		gp := goalie.NewGoaliePost(f, src.GoaliePost.URL)
		goalies = append(goalies, source.New(goalie.SourceGoaliePost, gp.Goalies,
			source.WithTimeout(src.GoaliePost.Timeout),
			source.WithCache(src.GoaliePost.CacheTTL),
			source.WithClock(o.now),
			source.WithLogger(logger),
		))
	}

	popts := []pipeline.Option{
		pipeline.WithModel(edge.NewModel(cfg.Edge)),
		pipeline.WithClock(o.now),
		pipeline.WithLogger(logger),
	}
	if m := oddsSource(f, src.Odds); m != nil {
		popts = append(popts, pipeline.WithOdds(source.New(src.Odds.Provider, m,
			source.WithTimeout(src.Odds.Timeout),
			source.WithCache(src.Odds.CacheTTL),
			source.WithClock(o.now),
			source.WithLogger(logger),
		)))
	}
	if src.NHLFallback.Enabled {
		popts = append(popts, pipeline.WithFallback(goalie.SourceNHL, goalie.NewNHL(f, src.NHLFallback.BaseURL), src.NHLFallback.Timeout))
		popts = append(popts, pipeline.WithFallbackCache(src.NHLFallback.CacheTTL))
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline.New(schedSrc, goalies, popts...),
		redis:    o.redis,
	}
	if a.redis == nil && cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	}
	if a.redis != nil {
		a.store = cache.NewStore(a.redis, cfg.Snapshot.TTL)
		if cfg.Alerts.Enabled {
			a.publisher = alert.NewPublisher(a.redis, cfg.Alerts.Stream, cfg.Alerts.DedupeTTL)
		}
	}
	return a, nil
}

func oddsSource(f *fetch.Client, c config.OddsConfig) source.FetchFunc[odds.Market] {
	switch c.Provider {
	case config.OddsPolymarket:
		return odds.NewPolymarket(f, c.PolymarketURL).Markets
	case config.OddsAPI:
		return odds.NewOddsAPI(f, c.OddsAPIKey, c.OddsAPIURL).Markets
	}
	return nil
}

// Pipeline returns the games pipeline.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Redis returns the Redis client, nil when none is configured.
func (a *App) Redis() *redis.Client { return a.redis }

// Store returns the snapshot store, nil without Redis.
func (a *App) Store() *cache.Store { return a.store }

// Ping checks Redis when configured.
func (a *App) Ping(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Server returns the HTTP API.
func (a *App) Server() *api.Server {
	opts := []api.Option{api.WithRequestTimeout(a.cfg.RequestTimeout), api.WithLogger(a.logger)}
	if a.store != nil {
		opts = append(opts, api.WithSnapshots(a.store))
	}
	return api.NewServer(a.pipeline, opts...)
}

// SnapshotJob returns the refresh job; file overrides the configured snapshot file.
func (a *App) SnapshotJob(file string) *snapshot.Job {
	if file == "" {
		file = a.cfg.Snapshot.File
	}
	opts := []snapshot.Option{snapshot.WithLogger(a.logger), snapshot.WithFile(file)}
	if a.store != nil {
		opts = append(opts, snapshot.WithStore(a.store))
	}
	if a.publisher != nil {
		opts = append(opts, snapshot.WithPublisher(a.publisher))
	}
	return snapshot.NewJob(a.pipeline, opts...)
}

// Scheduler returns a started scheduler running the snapshot job, or nil when
// snapshots are disabled.
func (a *App) Scheduler(ctx context.Context) (*gocron.Scheduler, error) {
	if !a.cfg.Snapshot.Enabled {
		return nil, nil
	}
	loc, err := time.LoadLocation(a.cfg.Snapshot.Timezone)
	if err != nil {
		return nil, fmt.Errorf("snapshot timezone: %w", err)
	}
	s := gocron.NewScheduler(loc)
	if _, err := snapshot.Schedule(ctx, s, a.cfg.Snapshot.Cron, a.SnapshotJob("")); err != nil {
		return nil, err
	}
	s.StartAsync()
	return s, nil
}

// Close releases Redis.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}
