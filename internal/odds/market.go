// Package odds reads moneyline prices for NHL games from prediction markets and
// sportsbooks and expresses them as implied win probabilities.
package odds

import (
	"github.com/sovagpt/nhl/internal/team"
)

// Outcome is one side of a two-way market. Pct is the implied probability 0–100.
type Outcome struct {
	Team string  `json:"team"`
	Pct  float64 `json:"pct"`
}

// Market is a two-way game-winner market.
type Market struct {
	Source   string    `json:"source"`
	Title    string    `json:"title,omitempty"`
	Outcomes []Outcome `json:"outcomes"`
}

// ImpliedPct returns implied probability from American odds (0–100).
func ImpliedPct(american int) float64 {
	if american >= 0 {
		return 100 * 100 / float64(100+american)
	}
	return 100 * float64(-american) / float64(100-american)
}

// normalize rescales outcome probabilities to sum to 100, removing the overround.
func normalize(out []Outcome) []Outcome {
	var sum float64
	for _, o := range out {
		sum += o.Pct
	}
	if sum <= 0 {
		return out
	}
	res := make([]Outcome, len(out))
	for i, o := range out {
		res[i] = Outcome{Team: o.Team, Pct: o.Pct * 100 / sum}
	}
	return res
}

// ForGame returns the home and away implied probabilities when both sides of the
// game can be identified among the outcomes. Exact franchise matches are tried
// before the permissive substring heuristic.
func (m Market) ForGame(homeName, homeAbbr, awayName, awayAbbr string) (home, away float64, ok bool) {
	if len(m.Outcomes) != 2 {
		return 0, 0, false
	}
	a, b := m.Outcomes[0], m.Outcomes[1]
	side := func(o Outcome, abbr string) bool {
		if t, found := team.FromName(o.Team); found && team.Exact(t.Abbrev, abbr) {
			return true
		}
		return team.Exact(o.Team, abbr)
	}
	switch {
	case side(a, homeAbbr) && side(b, awayAbbr):
		return a.Pct, b.Pct, true
	case side(b, homeAbbr) && side(a, awayAbbr):
		return b.Pct, a.Pct, true
	}
	switch {
	case team.Matches(a.Team, homeName, homeAbbr) && team.Matches(b.Team, awayName, awayAbbr):
		return a.Pct, b.Pct, true
	case team.Matches(b.Team, homeName, homeAbbr) && team.Matches(a.Team, awayName, awayAbbr):
		return b.Pct, a.Pct, true
	}
	return 0, 0, false
}
