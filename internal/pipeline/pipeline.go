// Package pipeline joins the schedule with goalie and odds sources and assembles
// the games response.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sovagpt/nhl/internal/edge"
	"github.com/sovagpt/nhl/internal/goalie"
	"github.com/sovagpt/nhl/internal/metrics"
	"github.com/sovagpt/nhl/internal/odds"
	"github.com/sovagpt/nhl/internal/schedule"
	"github.com/sovagpt/nhl/internal/source"
	"github.com/sovagpt/nhl/internal/team"
)

// ErrPipeline marks a build that failed as a whole. Only a panic produces it.
var ErrPipeline = errors.New("pipeline failure")

const defaultFallbackTimeout = 10 * time.Second

// Namespace for game ids; changing it changes every id.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sovagpt/nhl/games"))

// Fallback resolves goalies the scraped sources did not provide.
type Fallback interface {
	Starters(ctx context.Context, g *schedule.Game) (home, away *goalie.Record, err error)
	Enrich(ctx context.Context, r goalie.Record) goalie.Record
}

// Pipeline builds responses. It holds no per-request state; the only shared
// state lives in the sources' cache windows.
type Pipeline struct {
	schedule        source.Source[schedule.Game]
	goalies         []source.Source[goalie.Record]
	odds            source.Source[odds.Market]
	fallback        Fallback
	fallbackName    string
	fallbackTimeout time.Duration
	fallbackTTL     time.Duration
	model           *edge.Model
	now             func() time.Time
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOdds adds a market source.
func WithOdds(src source.Source[odds.Market]) Option {
	return func(p *Pipeline) { p.odds = src }
}

// WithFallback resolves still-TBD sides and fills unknown stats via fb, reported under name.
func WithFallback(name string, fb Fallback, timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.fallback = fb
		p.fallbackName = name
		if timeout > 0 {
			p.fallbackTimeout = timeout
		}
	}
}

// WithFallbackCache sets how long fallback lookups are remembered. Zero or
// negative disables the cache.
func WithFallbackCache(ttl time.Duration) Option {
	return func(p *Pipeline) { p.fallbackTTL = ttl }
}

// WithModel sets the edge model.
func WithModel(m *edge.Model) Option {
	return func(p *Pipeline) { p.model = m }
}

// WithClock sets the timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a pipeline over a schedule source and goalie sources in priority order.
func New(sched source.Source[schedule.Game], goalies []source.Source[goalie.Record], opts ...Option) *Pipeline {
	p := &Pipeline{
		schedule:        sched,
		goalies:         goalies,
		fallbackTimeout: defaultFallbackTimeout,
		fallbackTTL:     defaultFallbackCacheTTL,
		model:           edge.NewModel(edge.DefaultConfig()),
		now:             time.Now,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fallback != nil && p.fallbackTTL > 0 {
		p.fallback = newMemoFallback(p.fallback, p.fallbackName, p.fallbackTTL, p.Now)
	}
	return p
}

type fanout struct {
	games   []schedule.Game
	goalies [][]goalie.Record
	markets []odds.Market
}

// Build fetches every source concurrently, waits for all of them and assembles
// the response in schedule order. Source failures and an expired ctx only empty
// the sources that did not answer in time; the returned error (wrapping
// ErrPipeline) is reserved for a panic.
func (p *Pipeline) Build(ctx context.Context) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("%w: panic: %v", ErrPipeline, r)
		}
		if err != nil {
			metrics.RecordPipelineError()
			p.logger.Error("pipeline: build failed", "error", err)
		}
	}()

	f := p.fetchAll(ctx)

	sources := map[string]bool{p.schedule.Name(): len(f.games) > 0}
	var merged []goalie.Record
	for i, src := range p.goalies {
		sources[src.Name()] = len(f.goalies[i]) > 0
		merged = append(merged, f.goalies[i]...)
	}
	if p.odds != nil {
		sources[p.odds.Name()] = len(f.markets) > 0
	}

	games := make([]Game, len(f.games))
	for i := range f.games {
		games[i] = p.join(&f.games[i], merged)
	}
	if p.fallback != nil {
		sources[p.fallbackName] = p.resolveMissing(ctx, f.games, games)
	}
	for i := range games {
		p.enrich(&games[i], f.markets)
	}

	metrics.UpdateGamesBuilt(len(games))
	return &Response{
		Success:   true,
		Games:     games,
		Timestamp: p.now().UTC().Format(time.RFC3339),
		Sources:   sources,
	}, nil
}

// Goalies returns the merged goalie list from every goalie source, in priority order.
func (p *Pipeline) Goalies(ctx context.Context) []goalie.Record {
	lists := make([][]goalie.Record, len(p.goalies))
	var wg sync.WaitGroup
	for i, src := range p.goalies {
		wg.Add(1)
		go func(i int, src source.Source[goalie.Record]) {
			defer wg.Done()
			lists[i] = src.Fetch(ctx)
		}(i, src)
	}
	wg.Wait()
	out := []goalie.Record{}
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Now returns the pipeline clock's current time.
func (p *Pipeline) Now() time.Time { return p.now() }

func (p *Pipeline) fetchAll(ctx context.Context) fanout {
	f := fanout{goalies: make([][]goalie.Record, len(p.goalies))}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.games = p.schedule.Fetch(ctx)
	}()
	for i, src := range p.goalies {
		wg.Add(1)
		go func(i int, src source.Source[goalie.Record]) {
			defer wg.Done()
			f.goalies[i] = src.Fetch(ctx)
		}(i, src)
	}
	if p.odds != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.markets = p.odds.Fetch(ctx)
		}()
	}
	wg.Wait()
	return f
}

func (p *Pipeline) join(g *schedule.Game, merged []goalie.Record) Game {
	out := Game{
		ID:       GameID(g),
		HomeTeam: g.HomeName,
		AwayTeam: g.AwayName,
		HomeAbbr: g.HomeAbbrev,
		AwayAbbr: g.AwayAbbrev,
		GameTime: g.DisplayTime(),
		Status:   g.Status(),
		Goalies: Goalies{
			Home: pick(merged, g.HomeName, g.HomeAbbrev),
			Away: pick(merged, g.AwayName, g.AwayAbbrev),
		},
		TeamLogos: Logos{Home: optional(g.HomeLogo), Away: optional(g.AwayLogo)},
	}
	if out.Status != schedule.StatusScheduled && g.HomeScore != nil && g.AwayScore != nil {
		out.Score = &Score{Home: *g.HomeScore, Away: *g.AwayScore}
	}
	return out
}

// pick returns the first goalie whose team is exactly this franchise, else the first
// passing the permissive substring match, else TBD. merged is in source priority order.
func pick(merged []goalie.Record, name, abbrev string) goalie.Record {
	for _, r := range merged {
		if team.Exact(r.Team, abbrev) {
			return r
		}
	}
	for _, r := range merged {
		if team.Matches(r.Team, name, abbrev) {
			return r
		}
	}
	return goalie.TBD()
}

// resolveMissing runs the fallback for every game with a TBD side or unknown
// stats, concurrently and bounded by the fallback timeout. It reports whether
// the fallback changed anything.
func (p *Pipeline) resolveMissing(ctx context.Context, sched []schedule.Game, games []Game) bool {
	ctx, cancel := context.WithTimeout(ctx, p.fallbackTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		used bool
	)
	for i := range games {
		gm := &games[i]
		if !needsFallback(gm.Goalies.Home) && !needsFallback(gm.Goalies.Away) {
			continue
		}
		wg.Add(1)
		go func(sg *schedule.Game, gm *Game) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("pipeline: fallback panicked", "game", sg.GameID, "error", r)
				}
			}()
			if p.fillGame(ctx, sg, gm) {
				mu.Lock()
				used = true
				mu.Unlock()
			}
		}(&sched[i], gm)
	}
	wg.Wait()
	return used
}

func needsFallback(r goalie.Record) bool {
	return r.IsTBD() || !r.GAA.IsKnown() || !r.SVPct.IsKnown()
}

func (p *Pipeline) fillGame(ctx context.Context, sg *schedule.Game, gm *Game) bool {
	changed := false
	if gm.Goalies.Home.IsTBD() || gm.Goalies.Away.IsTBD() {
		home, away, err := p.fallback.Starters(ctx, sg)
		if err != nil {
			p.logger.Warn("pipeline: fallback starters failed", "game", sg.GameID, "error", err)
		}
		if home != nil && gm.Goalies.Home.IsTBD() {
			gm.Goalies.Home, changed = *home, true
		}
		if away != nil && gm.Goalies.Away.IsTBD() {
			gm.Goalies.Away, changed = *away, true
		}
	}
	for _, r := range []*goalie.Record{&gm.Goalies.Home, &gm.Goalies.Away} {
		if r.IsTBD() || (r.GAA.IsKnown() && r.SVPct.IsKnown()) {
			continue
		}
		before := *r
		*r = p.fallback.Enrich(ctx, *r)
		if r.GAA != before.GAA || r.SVPct != before.SVPct {
			changed = true
		}
	}
	return changed
}

// enrich attaches win probability, matched market odds and the edge.
func (p *Pipeline) enrich(gm *Game, markets []odds.Market) {
	home, away := gm.Goalies.Home, gm.Goalies.Away
	hp, ap := p.model.WinProbability(home, away)
	gm.HomeWinProb, gm.AwayWinProb = pct(hp), pct(ap)

	var marketHome *float64
	for _, m := range markets {
		h, a, ok := m.ForGame(gm.HomeTeam, gm.HomeAbbr, gm.AwayTeam, gm.AwayAbbr)
		if !ok {
			continue
		}
		gm.PolymarketOdds = &Odds{Home: pct(h), Away: pct(a), Source: m.Source, Title: m.Title}
		marketHome = &h
		break
	}
	gm.Edge = p.model.Evaluate(gm.HomeTeam, gm.AwayTeam, home, away, marketHome)
	if gm.Edge != nil {
		metrics.RecordEdge(gm.Edge.Basis, gm.Edge.Confidence)
	}
}

// GameID derives a stable id from the upstream game id, or from date and teams.
func GameID(g *schedule.Game) string {
	key := g.Date + ":" + g.AwayAbbrev + "@" + g.HomeAbbrev
	if g.GameID != 0 {
		key = "nhl:" + strconv.FormatInt(g.GameID, 10)
	}
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
