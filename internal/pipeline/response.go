package pipeline

import (
	"time"

	"github.com/sovagpt/nhl/internal/edge"
	"github.com/sovagpt/nhl/internal/goalie"
)

// Response is the body of GET /api/games.
type Response struct {
	Success   bool            `json:"success"`
	Games     []Game          `json:"games"`
	Timestamp string          `json:"timestamp"`
	Sources   map[string]bool `json:"sources"`
	Error     string          `json:"error,omitempty"`
}

// Game is one enriched game. Both goalies are always present.
type Game struct {
	ID             string       `json:"id"`
	HomeTeam       string       `json:"home_team"`
	AwayTeam       string       `json:"away_team"`
	HomeAbbr       string       `json:"home_abbr"`
	AwayAbbr       string       `json:"away_abbr"`
	GameTime       string       `json:"game_time"`
	Status         string       `json:"status"`
	Score          *Score       `json:"score"`
	HomeWinProb    string       `json:"home_win_prob"`
	AwayWinProb    string       `json:"away_win_prob"`
	PolymarketOdds *Odds        `json:"polymarket_odds"`
	Edge           *edge.Signal `json:"edge"`
	Goalies        Goalies      `json:"goalies"`
	TeamLogos      Logos        `json:"team_logos"`
}

// Score is present once a game has started.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Odds are the market-implied win percentages matched to a game.
type Odds struct {
	Home   string `json:"home"`
	Away   string `json:"away"`
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

// Goalies holds the two starters of a game.
type Goalies struct {
	Home goalie.Record `json:"home"`
	Away goalie.Record `json:"away"`
}

// Logos are team logo URLs, null when unknown.
type Logos struct {
	Home *string `json:"home"`
	Away *string `json:"away"`
}

// Failure is the body returned when a build fails as a whole.
func Failure(err error, now time.Time) *Response {
	return &Response{
		Success:   false,
		Games:     []Game{},
		Timestamp: now.UTC().Format(time.RFC3339),
		Sources:   map[string]bool{},
		Error:     err.Error(),
	}
}
