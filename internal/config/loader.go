package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix = "NHLEDGE_"
	EnvFile   = "NHLEDGE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if NHLEDGE_CONFIG is set
//  3. env (prefix NHLEDGE_, "__" separates nested keys)
//
// NHLEDGE_SOURCES__ODDS__PROVIDER=none maps to sources.odds.provider.
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.RequestTimeout <= 0:
		return invalid("request_timeout must be positive")
	case c.Sources.Schedule.BaseURL == "":
		return invalid("sources.schedule.base_url must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level %q is not one of debug|info|warn|error", c.LogLevel)
	}
	switch c.Sources.Odds.Provider {
	case OddsPolymarket, OddsNone:
	case OddsAPI:
		if c.Sources.Odds.OddsAPIKey == "" {
			return invalid("sources.odds.oddsapi_key is required for provider %q", OddsAPI)
		}
	default:
		return invalid("sources.odds.provider %q is not one of polymarket|oddsapi|none", c.Sources.Odds.Provider)
	}
	if slowest := c.slowestSource(); c.RequestTimeout <= slowest {
		return invalid("request_timeout %v must exceed the slowest source timeout %v", c.RequestTimeout, slowest)
	}
	if e := c.Edge; e.ProbFloor >= e.ProbCeiling || e.ProbFloor < 0 || e.ProbCeiling > 100 {
		return invalid("edge probability bounds [%v, %v] are not within 0..100", e.ProbFloor, e.ProbCeiling)
	}
	if c.Snapshot.Enabled {
		if c.Redis.Addr == "" {
			return invalid("snapshot.enabled requires redis.addr")
		}
		if c.Snapshot.Cron == "" {
			return invalid("snapshot.cron must not be empty")
		}
		if _, err := time.LoadLocation(c.Snapshot.Timezone); err != nil {
			return invalid("snapshot.timezone: %v", err)
		}
	}
	if c.Alerts.Enabled && c.Redis.Addr == "" {
		return invalid("alerts.enabled requires redis.addr")
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return invalid("metrics.buckets must be strictly increasing")
		}
	}
	return nil
}

// slowestSource is the longest timeout among the sources a build waits on.
func (c *Config) slowestSource() time.Duration {
	src := c.Sources
	d := src.Schedule.Timeout
	if src.DailyFaceoff.Enabled {
		d = max(d, src.DailyFaceoff.Timeout)
	}
	if src.GoaliePost.Enabled {
		d = max(d, src.GoaliePost.Timeout)
	}
	if src.Odds.Provider != OddsNone {
		d = max(d, src.Odds.Timeout)
	}
	return d
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
