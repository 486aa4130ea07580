package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sovagpt/nhl/internal/goalie"
	"github.com/sovagpt/nhl/internal/metrics"
	"github.com/sovagpt/nhl/internal/schedule"
)

const defaultFallbackCacheTTL = 5 * time.Minute

type startersEntry struct {
	home, away *goalie.Record
	at         time.Time
}

type statsEntry struct {
	gaa, sv goalie.Stat
	at      time.Time
}

// memoFallback remembers Starters per game and Enrich per goalie for ttl.
// Failed lookups are not remembered.
type memoFallback struct {
	inner Fallback
	name  string
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	starters map[string]startersEntry
	stats    map[string]statsEntry
}

func newMemoFallback(inner Fallback, name string, ttl time.Duration, now func() time.Time) *memoFallback {
	return &memoFallback{
		inner:    inner,
		name:     name,
		ttl:      ttl,
		now:      now,
		starters: make(map[string]startersEntry),
		stats:    make(map[string]statsEntry),
	}
}

func (m *memoFallback) fresh(at time.Time) bool { return m.now().Sub(at) < m.ttl }

func (m *memoFallback) Starters(ctx context.Context, g *schedule.Game) (*goalie.Record, *goalie.Record, error) {
	key := GameID(g)
	m.mu.Lock()
	e, ok := m.starters[key]
	m.mu.Unlock()
	if ok && m.fresh(e.at) {
		metrics.RecordCacheLookup(m.name, metrics.CacheHit)
		return copyRecord(e.home), copyRecord(e.away), nil
	}
	metrics.RecordCacheLookup(m.name, metrics.CacheMiss)

	home, away, err := m.inner.Starters(ctx, g)
	if err != nil || ctx.Err() != nil {
		return home, away, err
	}
	m.mu.Lock()
	m.starters[key] = startersEntry{home: copyRecord(home), away: copyRecord(away), at: m.now()}
	m.mu.Unlock()
	return home, away, nil
}

func (m *memoFallback) Enrich(ctx context.Context, r goalie.Record) goalie.Record {
	key := r.Team + "|" + r.Name
	m.mu.Lock()
	e, ok := m.stats[key]
	m.mu.Unlock()
	if ok && m.fresh(e.at) {
		metrics.RecordCacheLookup(m.name, metrics.CacheHit)
		return applyStats(r, e.gaa, e.sv)
	}
	metrics.RecordCacheLookup(m.name, metrics.CacheMiss)

	out := m.inner.Enrich(ctx, r)
	if ctx.Err() != nil {
		return out
	}
	m.mu.Lock()
	m.stats[key] = statsEntry{gaa: out.GAA, sv: out.SVPct, at: m.now()}
	m.mu.Unlock()
	return out
}

// applyStats fills r's unknown stats from a remembered lookup.
func applyStats(r goalie.Record, gaa, sv goalie.Stat) goalie.Record {
	if !r.GAA.IsKnown() {
		r.GAA = gaa
	}
	if !r.SVPct.IsKnown() {
		r.SVPct = sv
	}
	return r
}

func copyRecord(r *goalie.Record) *goalie.Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
