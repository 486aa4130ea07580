package goalie

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sovagpt/nhl/internal/fetch"
	"github.com/sovagpt/nhl/internal/schedule"
)

const (
	SourceNHL = "nhl"

	boxscoreURLFmt   = "%s/v1/gamecenter/%d/boxscore"
	playerLandingFmt = "%s/v1/player/%d/landing"
	rosterURLFmt     = "%s/v1/roster/%s/current"
)

// NHL resolves starters and season stats from the league API. Used for sides the
// scraped sources left empty.
type NHL struct {
	fetch   *fetch.Client
	baseURL string
	logger  *slog.Logger
}

// NewNHL returns a resolver against baseURL; empty uses the public API host.
func NewNHL(f *fetch.Client, baseURL string) *NHL {
	if baseURL == "" {
		baseURL = schedule.DefaultBaseURL
	}
	return &NHL{fetch: f, baseURL: strings.TrimRight(baseURL, "/"), logger: slog.Default()}
}

type boxGoalie struct {
	PlayerID int `json:"playerId"`
	Name     struct {
		Default string `json:"default"`
	} `json:"name"`
	Starter bool `json:"starter"`
}

// Starters returns each team's starter from the game boxscore, with season stats.
// Both are nil (and err nil) while the boxscore is not yet published.
func (c *NHL) Starters(ctx context.Context, g *schedule.Game) (home, away *Record, err error) {
	if g.GameID == 0 {
		return nil, nil, nil
	}
	resp, err := c.fetch.Get(ctx, fmt.Sprintf(boxscoreURLFmt, c.baseURL, g.GameID))
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, nil // lineup not yet published for this game
	}
	if !resp.OK() {
		return nil, nil, fetch.StatusError("boxscore", resp)
	}
	var box struct {
		PlayerByGameStats struct {
			AwayTeam struct {
				Goalies []boxGoalie `json:"goalies"`
			} `json:"awayTeam"`
			HomeTeam struct {
				Goalies []boxGoalie `json:"goalies"`
			} `json:"homeTeam"`
		} `json:"playerByGameStats"`
	}
	if err := resp.JSON(&box); err != nil {
		return nil, nil, err
	}
	home = c.starter(ctx, box.PlayerByGameStats.HomeTeam.Goalies, g.HomeAbbrev)
	away = c.starter(ctx, box.PlayerByGameStats.AwayTeam.Goalies, g.AwayAbbrev)
	return home, away, nil
}

func (c *NHL) starter(ctx context.Context, goalies []boxGoalie, abbrev string) *Record {
	if len(goalies) == 0 {
		return nil
	}
	pick := goalies[0]
	for _, gk := range goalies {
		if gk.Starter {
			pick = gk
			break
		}
	}
	if pick.PlayerID == 0 {
		return nil
	}
	r := TBD()
	r.Name = pick.Name.Default
	r.Team = abbrev
	r.Source = SourceNHL
	r.Confirmed = pick.Starter
	if err := c.fillStats(ctx, pick.PlayerID, &r); err != nil {
		c.logger.Warn("goalie: player landing failed", "player_id", pick.PlayerID, "error", err)
	}
	return &r
}

// Enrich fills unknown GAA/SV% on a scraped record by resolving its name on the
// team's current roster. The record is returned unchanged when nothing resolves.
func (c *NHL) Enrich(ctx context.Context, r Record) Record {
	if r.IsTBD() || r.Team == "" || (r.GAA.IsKnown() && r.SVPct.IsKnown()) {
		return r
	}
	id := c.rosterGoalieID(ctx, r.Team, r.Name)
	if id == 0 {
		return r
	}
	var stats Record
	if err := c.fillStats(ctx, id, &stats); err != nil {
		c.logger.Warn("goalie: enrich failed", "name", r.Name, "error", err)
		return r
	}
	if !r.GAA.IsKnown() {
		r.GAA = stats.GAA
	}
	if !r.SVPct.IsKnown() {
		r.SVPct = stats.SVPct
	}
	if r.Wins+r.Losses+r.OTL == 0 {
		r.Wins, r.Losses, r.OTL = stats.Wins, stats.Losses, stats.OTL
	}
	if r.Photo == nil {
		r.Photo = stats.Photo
	}
	return r
}

// rosterGoalieID matches fullName (e.g. "Dan Vladar") against the team's goalies:
// last name must match, first name or its initial when given.
func (c *NHL) rosterGoalieID(ctx context.Context, teamAbbrev, fullName string) int {
	resp, err := c.fetch.Get(ctx, fmt.Sprintf(rosterURLFmt, c.baseURL, teamAbbrev))
	if err != nil || !resp.OK() {
		return 0
	}
	var roster struct {
		Goalies []struct {
			ID        int `json:"id"`
			FirstName struct {
				Default string `json:"default"`
			} `json:"firstName"`
			LastName struct {
				Default string `json:"default"`
			} `json:"lastName"`
		} `json:"goalies"`
	}
	if err := resp.JSON(&roster); err != nil {
		return 0
	}
	fullName = strings.TrimSpace(fullName)
	var first, last string
	if parts := strings.SplitN(fullName, " ", 2); len(parts) == 2 {
		first, last = strings.TrimSuffix(parts[0], "."), parts[1]
	} else {
		last = fullName
	}
	for _, g := range roster.Goalies {
		rf, rl := g.FirstName.Default, g.LastName.Default
		if !strings.EqualFold(rl, last) {
			continue
		}
		if first == "" || strings.EqualFold(rf, first) || (rf != "" && strings.EqualFold(rf[:1], first[:1])) {
			return g.ID
		}
	}
	return 0
}

// fillStats copies season GAA, SV%, record and headshot from the player landing.
func (c *NHL) fillStats(ctx context.Context, playerID int, r *Record) error {
	resp, err := c.fetch.Get(ctx, fmt.Sprintf(playerLandingFmt, c.baseURL, playerID))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fetch.StatusError("player landing", resp)
	}
	type line struct {
		GoalsAgainstAvg *float64 `json:"goalsAgainstAvg"`
		SavePctg        *float64 `json:"savePctg"`
		Wins            int      `json:"wins"`
		Losses          int      `json:"losses"`
		OTLosses        int      `json:"otLosses"`
	}
	var landing struct {
		Headshot      string `json:"headshot"`
		FeaturedStats *struct {
			RegularSeason *struct {
				SubSeason *line `json:"subSeason"`
			} `json:"regularSeason"`
		} `json:"featuredStats"`
		SeasonTotals []struct {
			line
			Season     int `json:"season"`
			GameTypeID int `json:"gameTypeId"`
		} `json:"seasonTotals"`
	}
	if err := resp.JSON(&landing); err != nil {
		return err
	}
	r.Photo = photoRef(landing.Headshot)

	var best *line
	if fs := landing.FeaturedStats; fs != nil && fs.RegularSeason != nil && fs.RegularSeason.SubSeason != nil {
		best = fs.RegularSeason.SubSeason
	}
	if best == nil || best.SavePctg == nil {
		// featuredStats is absent for backup/inactive goalies; use the latest regular season.
		bestSeason := 0
		for i := range landing.SeasonTotals {
			s := &landing.SeasonTotals[i]
			if s.GameTypeID != 2 || s.SavePctg == nil {
				continue
			}
			if s.Season > bestSeason {
				bestSeason = s.Season
				best = &s.line
			}
		}
	}
	if best == nil {
		return nil
	}
	if best.GoalsAgainstAvg != nil {
		r.GAA = Known(*best.GoalsAgainstAvg)
	}
	if best.SavePctg != nil {
		r.SVPct = Known(*best.SavePctg)
	}
	r.Wins, r.Losses, r.OTL = best.Wins, best.Losses, best.OTLosses
	return nil
}
