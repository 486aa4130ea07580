package odds

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/sovagpt/nhl/internal/fetch"
)

const (
	PolymarketBaseURL = "https://gamma-api.polymarket.com"
	SourcePolymarket  = "polymarket"
)

// Polymarket reads open NHL game markets from the Gamma API.
type Polymarket struct {
	fetch   *fetch.Client
	baseURL string
}

// NewPolymarket returns a client against baseURL; empty uses the public Gamma host.
func NewPolymarket(f *fetch.Client, baseURL string) *Polymarket {
	if baseURL == "" {
		baseURL = PolymarketBaseURL
	}
	return &Polymarket{fetch: f, baseURL: strings.TrimRight(baseURL, "/")}
}

type gammaEvent struct {
	Title   string        `json:"title"`
	Markets []gammaMarket `json:"markets"`
}

// Gamma encodes outcomes and prices as JSON arrays inside strings.
type gammaMarket struct {
	Question      string `json:"question"`
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	Closed        bool   `json:"closed"`
}

// Markets returns one two-way team market per open NHL event.
func (p *Polymarket) Markets(ctx context.Context) ([]Market, error) {
	q := url.Values{}
	q.Set("tag_slug", "nhl")
	q.Set("closed", "false")
	q.Set("limit", "100")
	resp, err := p.fetch.Get(ctx, p.baseURL+"/events?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fetch.StatusError("polymarket events", resp)
	}
	var events []gammaEvent
	if err := resp.JSON(&events); err != nil {
		return nil, err
	}
	var out []Market
	for _, e := range events {
		for _, m := range e.Markets {
			outcomes, ok := teamOutcomes(m)
			if !ok {
				continue
			}
			title := e.Title
			if title == "" {
				title = m.Question
			}
			out = append(out, Market{Source: SourcePolymarket, Title: title, Outcomes: normalize(outcomes)})
			break
		}
	}
	return out, nil
}

// teamOutcomes decodes a two-outcome market whose outcomes are teams (not Yes/No).
func teamOutcomes(m gammaMarket) ([]Outcome, bool) {
	if m.Closed {
		return nil, false
	}
	var names, prices []string
	if json.Unmarshal([]byte(m.Outcomes), &names) != nil || json.Unmarshal([]byte(m.OutcomePrices), &prices) != nil {
		return nil, false
	}
	if len(names) != 2 || len(prices) != 2 {
		return nil, false
	}
	out := make([]Outcome, 0, 2)
	for i, n := range names {
		if strings.EqualFold(n, "yes") || strings.EqualFold(n, "no") {
			return nil, false
		}
		price, err := strconv.ParseFloat(prices[i], 64)
		if err != nil || price < 0 || price > 1 {
			return nil, false
		}
		out = append(out, Outcome{Team: n, Pct: price * 100})
	}
	return out, true
}
