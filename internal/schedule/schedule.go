// Package schedule reads the day's games from the NHL schedule API.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Lambda images ship without zoneinfo

	"github.com/sovagpt/nhl/internal/fetch"
	"github.com/sovagpt/nhl/internal/team"
)

const scheduleURLFmt = "%s/v1/schedule/%s"

const DefaultBaseURL = "https://api-web.nhle.com"

// Game lifecycle as exposed in responses.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusFinal     = "final"
)

// Eastern is the zone game times are displayed in.
var Eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("ET", -5*60*60)
	}
	return loc
}

// Game is one scheduled NHL game for a date.
type Game struct {
	GameID       int64
	Date         string // YYYY-MM-DD, Eastern
	StartTimeUTC time.Time
	GameState    string
	HomeAbbrev   string
	AwayAbbrev   string
	HomeName     string
	AwayName     string
	HomeScore    *int
	AwayScore    *int
	HomeLogo     string
	AwayLogo     string
}

// Status maps the upstream game state onto scheduled/live/final.
func (g *Game) Status() string {
	switch strings.ToUpper(g.GameState) {
	case "LIVE", "CRIT":
		return StatusLive
	case "FINAL", "OFF":
		return StatusFinal
	default:
		return StatusScheduled
	}
}

// DisplayTime renders the start as e.g. "7:00 PM" in Eastern time, or "TBD" when unknown.
func (g *Game) DisplayTime() string {
	if g.StartTimeUTC.IsZero() {
		return "TBD"
	}
	return g.StartTimeUTC.In(Eastern).Format("3:04 PM")
}

// Client fetches the league schedule for a day.
type Client struct {
	fetch   *fetch.Client
	baseURL string
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithClock sets the clock used to pick "today".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient returns a schedule client using f for transport.
func NewClient(f *fetch.Client, opts ...Option) *Client {
	c := &Client{fetch: f, baseURL: DefaultBaseURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today returns today's date in Eastern time as YYYY-MM-DD.
func (c *Client) Today() string {
	return c.now().In(Eastern).Format("2006-01-02")
}

// TodaysGames returns the games scheduled today (Eastern).
func (c *Client) TodaysGames(ctx context.Context) ([]Game, error) {
	return c.GamesOn(ctx, c.Today())
}

type apiTeam struct {
	Abbrev    string `json:"abbrev"`
	PlaceName struct {
		Default string `json:"default"`
	} `json:"placeName"`
	CommonName struct {
		Default string `json:"default"`
	} `json:"commonName"`
	Logo  string `json:"logo"`
	Score *int   `json:"score"`
}

// GamesOn returns the games for date (YYYY-MM-DD) in upstream order.
func (c *Client) GamesOn(ctx context.Context, date string) ([]Game, error) {
	resp, err := c.fetch.Get(ctx, fmt.Sprintf(scheduleURLFmt, c.baseURL, date))
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fetch.StatusError("schedule", resp)
	}
	var sched struct {
		GameWeek []struct {
			Date  string `json:"date"`
			Games []struct {
				ID           int64   `json:"id"`
				StartTimeUTC string  `json:"startTimeUTC"`
				GameState    string  `json:"gameState"`
				HomeTeam     apiTeam `json:"homeTeam"`
				AwayTeam     apiTeam `json:"awayTeam"`
			} `json:"games"`
		} `json:"gameWeek"`
	}
	if err := resp.JSON(&sched); err != nil {
		return nil, err
	}
	var games []Game
	for _, day := range sched.GameWeek {
		if day.Date != date {
			continue
		}
		for _, g := range day.Games {
			start, _ := time.Parse(time.RFC3339, g.StartTimeUTC) // zero -> "TBD"
			games = append(games, Game{
				GameID:       g.ID,
				Date:         day.Date,
				StartTimeUTC: start,
				GameState:    g.GameState,
				HomeAbbrev:   team.Canonical(g.HomeTeam.Abbrev),
				AwayAbbrev:   team.Canonical(g.AwayTeam.Abbrev),
				HomeName:     teamName(g.HomeTeam),
				AwayName:     teamName(g.AwayTeam),
				HomeScore:    g.HomeTeam.Score,
				AwayScore:    g.AwayTeam.Score,
				HomeLogo:     g.HomeTeam.Logo,
				AwayLogo:     g.AwayTeam.Logo,
			})
		}
	}
	return games, nil
}

func teamName(t apiTeam) string {
	if tm, ok := team.Lookup(t.Abbrev); ok {
		return tm.Name()
	}
	name := strings.TrimSpace(t.PlaceName.Default + " " + t.CommonName.Default)
	if name == "" {
		return t.Abbrev
	}
	return name
}
