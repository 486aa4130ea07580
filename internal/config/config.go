// Package config holds the service configuration and its loader.
package config

import (
	"time"

	"github.com/sovagpt/nhl/internal/edge"
)

// Odds providers.
const (
	OddsPolymarket = "polymarket"
	OddsAPI        = "oddsapi"
	OddsNone       = "none"
)

// Config is the full service configuration.
type Config struct {
	LogLevel string `koanf:"log_level"`
	Addr     string `koanf:"addr"`
	// RequestTimeout bounds one /api/games build.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	HTTP     HTTPConfig     `koanf:"http"`
	Sources  SourcesConfig  `koanf:"sources"`
	Edge     edge.Config    `koanf:"edge"`
	Redis    RedisConfig    `koanf:"redis"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Discord  DiscordConfig  `koanf:"discord"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// HTTPConfig configures the shared upstream fetcher.
type HTTPConfig struct {
	UserAgent    string        `koanf:"user_agent"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`
}

// SourcesConfig configures every upstream.
type SourcesConfig struct {
	Schedule     ScheduleConfig     `koanf:"schedule"`
	DailyFaceoff DailyFaceoffConfig `koanf:"dailyfaceoff"`
	GoaliePost   GoaliePostConfig   `koanf:"goaliepost"`
	NHLFallback  FallbackConfig     `koanf:"nhl_fallback"`
	Odds         OddsConfig         `koanf:"odds"`
}

// ScheduleConfig configures the league schedule client.
type ScheduleConfig struct {
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// DailyFaceoffConfig configures the headless-browser starting goalies scraper.
type DailyFaceoffConfig struct {
	Enabled  bool          `koanf:"enabled"`
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// ChromeURL is a DevTools websocket of a running browser; empty launches one.
	ChromeURL  string        `koanf:"chrome_url"`
	ChromePath string        `koanf:"chrome_path"`
	NavTimeout time.Duration `koanf:"nav_timeout"`
	Settle     time.Duration `koanf:"settle"`
}

// GoaliePostConfig configures the static-HTML goalie scraper.
type GoaliePostConfig struct {
	Enabled  bool          `koanf:"enabled"`
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// FallbackConfig configures the NHL API lookups for goalies no scraper resolved.
// CacheTTL is how long a lookup is remembered; zero disables it.
type FallbackConfig struct {
	Enabled  bool          `koanf:"enabled"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// OddsConfig selects the market odds provider and its endpoints.
type OddsConfig struct {
	Provider      string        `koanf:"provider"`
	PolymarketURL string        `koanf:"polymarket_url"`
	OddsAPIURL    string        `koanf:"oddsapi_url"`
	OddsAPIKey    string        `koanf:"oddsapi_key"`
	Timeout       time.Duration `koanf:"timeout"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
}

// RedisConfig: an empty Addr disables snapshots and alerts.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SnapshotConfig schedules the periodic snapshot job.
type SnapshotConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Cron     string        `koanf:"cron"`
	Timezone string        `koanf:"timezone"`
	TTL      time.Duration `koanf:"ttl"`
	// File, when set, also receives every snapshot as JSON.
	File string `koanf:"file"`
}

// AlertsConfig configures the edge alert stream.
type AlertsConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Stream    string        `koanf:"stream"`
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`
}

// DiscordConfig configures the announcer bot.
type DiscordConfig struct {
	Token     string `koanf:"token"`
	ChannelID string `koanf:"channel_id"`
	// GuildID scopes slash commands; empty registers them globally.
	GuildID  string `koanf:"guild_id"`
	Consumer string `koanf:"consumer"`
}

// MetricsConfig names the Prometheus collectors. Empty buckets keep the built-in ones.
type MetricsConfig struct {
	Namespace string    `koanf:"namespace"`
	Subsystem string    `koanf:"subsystem"`
	Buckets   []float64 `koanf:"buckets"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":8080",
		RequestTimeout: 45 * time.Second,
		HTTP: HTTPConfig{
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:      15 * time.Second,
			MaxBodyBytes: 8 << 20,
		},
		Sources: SourcesConfig{
			Schedule: ScheduleConfig{
				BaseURL:  "https://api-web.nhle.com",
				Timeout:  15 * time.Second,
				CacheTTL: time.Minute,
			},
			DailyFaceoff: DailyFaceoffConfig{
				Enabled:    true,
				URL:        "https://www.dailyfaceoff.com/starting-goalies/",
				Timeout:    40 * time.Second,
				CacheTTL:   3 * time.Minute,
				NavTimeout: 30 * time.Second,
				Settle:     3 * time.Second,
			},
			GoaliePost: GoaliePostConfig{
				Enabled:  true,
				URL:      "https://goaliepost.com/",
				Timeout:  20 * time.Second,
				CacheTTL: 5 * time.Minute,
			},
			NHLFallback: FallbackConfig{
				Enabled:  true,
				BaseURL:  "https://api-web.nhle.com",
				Timeout:  10 * time.Second,
				CacheTTL: 5 * time.Minute,
			},
			Odds: OddsConfig{
				Provider:      OddsPolymarket,
				PolymarketURL: "https://gamma-api.polymarket.com",
				OddsAPIURL:    "https://api.the-odds-api.com/v4",
				Timeout:       15 * time.Second,
				CacheTTL:      2 * time.Minute,
			},
		},
		Edge: edge.DefaultConfig(),
		Snapshot: SnapshotConfig{
			Cron:     "*/10 * * * *",
			Timezone: "America/New_York",
			TTL:      time.Hour,
		},
		Alerts: AlertsConfig{
			Stream:    "nhledge:alerts",
			DedupeTTL: 24 * time.Hour,
		},
		Discord: DiscordConfig{
			Consumer: "announcer-1",
		},
		Metrics: MetricsConfig{
			Namespace: "nhledge",
		},
	}
}
