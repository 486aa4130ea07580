// Package edge turns two starting goalies (and optionally a market price) into a
// win-probability estimate and a betting edge signal.
package edge

import (
	"fmt"
	"math"

	"github.com/sovagpt/nhl/internal/goalie"
)

// Confidence tiers.
const (
	Medium = "MEDIUM"
	High   = "HIGH"
)

// Basis of an edge.
const (
	BasisStats  = "stats"
	BasisMarket = "market"
)

// Config holds the model coefficients and thresholds.
type Config struct {
	// Win probability: home = 50 + GAACoefficient × (awayGAA − homeGAA), clamped.
	GAACoefficient float64 `koanf:"gaa_coefficient"`
	ProbFloor      float64 `koanf:"prob_floor"`
	ProbCeiling    float64 `koanf:"prob_ceiling"`

	// Stat edge: score = GAAWeight × (awayGAA − homeGAA) + SVWeight × (homeSV − awaySV).
	GAAWeight float64 `koanf:"gaa_weight"`
	SVWeight  float64 `koanf:"sv_weight"`
	StatMin   float64 `koanf:"stat_min"`
	StatHigh  float64 `koanf:"stat_high"`

	// Market edge in percentage points: modelHome − marketHome.
	MarketMin  float64 `koanf:"market_min"`
	MarketHigh float64 `koanf:"market_high"`
}

// DefaultConfig returns the production coefficients.
func DefaultConfig() Config {
	return Config{
		GAACoefficient: 5.0,
		ProbFloor:      20,
		ProbCeiling:    80,
		GAAWeight:      10,
		SVWeight:       100,
		StatMin:        0.5,
		StatHigh:       1.0,
		MarketMin:      0.5,
		MarketHigh:     5.0,
	}
}

// Signal is an edge attached to a game.
type Signal struct {
	Recommendation string  `json:"recommendation"`
	Confidence     string  `json:"confidence"`
	Value          string  `json:"value"`
	Basis          string  `json:"basis"`
	Side           string  `json:"side"`
	Magnitude      float64 `json:"-"`
}

// Model evaluates games. It is stateless and safe for concurrent use.
type Model struct {
	cfg Config
}

// NewModel returns a model with cfg.
func NewModel(cfg Config) *Model {
	return &Model{cfg: cfg}
}

// Config returns the model's configuration.
func (m *Model) Config() Config { return m.cfg }

// WinProbability returns home and away win percentages. Without both GAAs it is 50/50.
func (m *Model) WinProbability(home, away goalie.Record) (homePct, awayPct float64) {
	hg, hok := home.GAA.Value()
	ag, aok := away.GAA.Value()
	if !hok || !aok {
		return 50, 50
	}
	homePct = clampPct(50+m.cfg.GAACoefficient*(ag-hg), m.cfg.ProbFloor, m.cfg.ProbCeiling)
	return homePct, 100 - homePct
}

// Evaluate returns the edge for a game, or nil when none is reported. marketHome is
// the market-implied home win percentage, nil when no market matched the game.
// Either GAA unknown means no edge.
func (m *Model) Evaluate(homeTeam, awayTeam string, home, away goalie.Record, marketHome *float64) *Signal {
	hg, hok := home.GAA.Value()
	ag, aok := away.GAA.Value()
	if !hok || !aok {
		return nil
	}
	if marketHome != nil {
		modelHome, _ := m.WinProbability(home, away)
		return m.signal(modelHome-*marketHome, m.cfg.MarketMin, m.cfg.MarketHigh, BasisMarket, homeTeam, awayTeam)
	}
	score := m.cfg.GAAWeight * (ag - hg)
	hs, hsok := home.SVPct.Value()
	as, asok := away.SVPct.Value()
	if hsok && asok {
		score += m.cfg.SVWeight * (svFraction(hs) - svFraction(as))
	}
	return m.signal(score, m.cfg.StatMin, m.cfg.StatHigh, BasisStats, homeTeam, awayTeam)
}

func (m *Model) signal(score, minimum, high float64, basis, homeTeam, awayTeam string) *Signal {
	mag := math.Abs(score)
	if mag <= minimum {
		return nil
	}
	side, favored := "home", homeTeam
	if score < 0 {
		side, favored = "away", awayTeam
	}
	conf := Medium
	if mag > high {
		conf = High
	}
	return &Signal{
		Recommendation: "BET " + favored,
		Confidence:     conf,
		Value:          fmt.Sprintf("%.1f", mag),
		Basis:          basis,
		Side:           side,
		Magnitude:      math.Round(mag*10) / 10,
	}
}

// svFraction accepts .915 or 91.5 and returns 0.915.
func svFraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

func clampPct(pct, floor, ceiling float64) float64 {
	if pct < floor {
		return floor
	}
	if pct > ceiling {
		return ceiling
	}
	return pct
}
