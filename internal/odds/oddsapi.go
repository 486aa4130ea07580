package odds

import (
	"context"
	"net/url"
	"strings"

	"github.com/sovagpt/nhl/internal/fetch"
)

const (
	OddsAPIBaseURL = "https://api.the-odds-api.com/v4"
	SourceOddsAPI  = "oddsapi"

	sportKey    = "icehockey_nhl"
	h2hMarket   = "h2h"
	usBookmaker = "us"
)

// OddsAPI reads NHL moneylines from The Odds API.
type OddsAPI struct {
	apiKey  string
	fetch   *fetch.Client
	baseURL string
}

// NewOddsAPI returns a client. If apiKey is empty, all fetches are skipped (no-op).
func NewOddsAPI(f *fetch.Client, apiKey, baseURL string) *OddsAPI {
	if baseURL == "" {
		baseURL = OddsAPIBaseURL
	}
	return &OddsAPI{apiKey: apiKey, fetch: f, baseURL: strings.TrimRight(baseURL, "/")}
}

type eventOdds struct {
	ID           string `json:"id"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	Bookmakers   []struct {
		Key     string `json:"key"`
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string `json:"name"`
				Price int    `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// Markets returns one market per event with each side's implied probability
// averaged across bookmakers and then de-vigged.
func (c *OddsAPI) Markets(ctx context.Context) ([]Market, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	u := c.baseURL + "/sports/" + sportKey + "/odds?apiKey=" + url.QueryEscape(c.apiKey) +
		"&regions=" + usBookmaker + "&markets=" + h2hMarket + "&oddsFormat=american"
	resp, err := c.fetch.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fetch.StatusError("odds", resp)
	}
	var events []eventOdds
	if err := resp.JSON(&events); err != nil {
		return nil, err
	}
	var out []Market
	for _, e := range events {
		var homeSum, awaySum float64
		var n int
		for _, b := range e.Bookmakers {
			for _, m := range b.Markets {
				if m.Key != h2hMarket {
					continue
				}
				var home, away float64
				var gotHome, gotAway bool
				for _, o := range m.Outcomes {
					switch o.Name {
					case e.HomeTeam:
						home, gotHome = ImpliedPct(o.Price), true
					case e.AwayTeam:
						away, gotAway = ImpliedPct(o.Price), true
					}
				}
				if gotHome && gotAway {
					homeSum += home
					awaySum += away
					n++
				}
			}
		}
		if n == 0 {
			continue
		}
		out = append(out, Market{
			Source: SourceOddsAPI,
			Title:  e.AwayTeam + " @ " + e.HomeTeam,
			Outcomes: normalize([]Outcome{
				{Team: e.HomeTeam, Pct: homeSum / float64(n)},
				{Team: e.AwayTeam, Pct: awaySum / float64(n)},
			}),
		})
	}
	return out, nil
}
