package odds

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sovagpt/nhl/internal/fetch"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestImpliedPct(t *testing.T) {
	cases := map[int]float64{100: 50, -150: 60, 150: 40, -100: 50, 300: 25}
	for american, want := range cases {
		if got := ImpliedPct(american); !approx(got, want) {
			t.Errorf("ImpliedPct(%d) = %v; want %v", american, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]Outcome{{"A", 55}, {"B", 50}})
	if !approx(got[0].Pct+got[1].Pct, 100) || !approx(got[0].Pct, 52.38) {
		t.Errorf("normalize = %+v", got)
	}
	zero := normalize([]Outcome{{"A", 0}, {"B", 0}})
	if zero[0].Pct != 0 {
		t.Errorf("normalize zero = %+v", zero)
	}
}

func TestMarketForGame(t *testing.T) {
	m := Market{Outcomes: []Outcome{{"Maple Leafs", 45}, {"Bruins", 55}}}
	home, away, ok := m.ForGame("Boston Bruins", "BOS", "Toronto Maple Leafs", "TOR")
	if !ok || home != 55 || away != 45 {
		t.Errorf("ForGame = %v %v %v", home, away, ok)
	}
	if _, _, ok := m.ForGame("Dallas Stars", "DAL", "Colorado Avalanche", "COL"); ok {
		t.Error("unrelated game matched")
	}
	if _, _, ok := (Market{Outcomes: []Outcome{{"Bruins", 100}}}).ForGame("Boston Bruins", "BOS", "x", "y"); ok {
		t.Error("one-outcome market matched")
	}
	// abbreviation outcomes fall back to the permissive heuristic
	abbr := Market{Outcomes: []Outcome{{"NJ", 48}, {"NYR", 52}}}
	if h, a, ok := abbr.ForGame("New Jersey Devils", "NJD", "New York Rangers", "NYR"); !ok || h != 48 || a != 52 {
		t.Errorf("abbr ForGame = %v %v %v", h, a, ok)
	}
}

const gammaJSON = `[
	{"title": "Bruins vs. Maple Leafs", "markets": [
		{"question": "Will Boston win?", "outcomes": "[\"Yes\", \"No\"]", "outcomePrices": "[\"0.5\", \"0.5\"]"},
		{"question": "Bruins vs. Maple Leafs", "outcomes": "[\"Bruins\", \"Maple Leafs\"]", "outcomePrices": "[\"0.56\", \"0.46\"]"}
	]},
	{"title": "Broken", "markets": [
		{"question": "x", "outcomes": "not json", "outcomePrices": "[]"}
	]},
	{"title": "Closed", "markets": [
		{"question": "y", "outcomes": "[\"Stars\", \"Avalanche\"]", "outcomePrices": "[\"0.5\", \"0.5\"]", "closed": true}
	]}
]`

func TestPolymarketMarkets(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(gammaJSON))
	}))
	defer server.Close()

	got, err := NewPolymarket(fetch.New(), server.URL).Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if !strings.Contains(gotQuery, "tag_slug=nhl") || !strings.Contains(gotQuery, "closed=false") {
		t.Errorf("query = %q", gotQuery)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d; want 1", len(got))
	}
	m := got[0]
	if m.Source != SourcePolymarket || m.Title != "Bruins vs. Maple Leafs" {
		t.Errorf("market = %+v", m)
	}
	if !approx(m.Outcomes[0].Pct+m.Outcomes[1].Pct, 100) || !approx(m.Outcomes[0].Pct, 54.90) {
		t.Errorf("outcomes = %+v; want de-vigged", m.Outcomes)
	}
}

func TestPolymarketMarkets_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	if _, err := NewPolymarket(fetch.New(), server.URL).Markets(context.Background()); err == nil {
		t.Error("expected error on 429")
	}
}

const oddsJSON = `[
	{"id": "e1", "home_team": "Toronto Maple Leafs", "away_team": "Boston Bruins", "bookmakers": [
		{"key": "draftkings", "markets": [{"key": "h2h", "outcomes": [
			{"name": "Toronto Maple Leafs", "price": -150}, {"name": "Boston Bruins", "price": 130}]}]},
		{"key": "fanduel", "markets": [{"key": "h2h", "outcomes": [
			{"name": "Toronto Maple Leafs", "price": -130}, {"name": "Boston Bruins", "price": 110}]}]}
	]},
	{"id": "e2", "home_team": "Dallas Stars", "away_team": "Colorado Avalanche", "bookmakers": []}
]`

func TestOddsAPIMarkets(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Write([]byte(oddsJSON))
	}))
	defer server.Close()

	got, err := NewOddsAPI(fetch.New(), "secret", server.URL).Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if gotPath != "/sports/icehockey_nhl/odds" || !strings.Contains(gotQuery, "markets=h2h") || !strings.Contains(gotQuery, "apiKey=secret") {
		t.Errorf("request = %s?%s", gotPath, gotQuery)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d; want 1 (event without books skipped)", len(got))
	}
	home, away, ok := got[0].ForGame("Toronto Maple Leafs", "TOR", "Boston Bruins", "BOS")
	if !ok || home <= away || !approx(home+away, 100) {
		t.Errorf("ForGame = %v %v %v", home, away, ok)
	}
}

func TestOddsAPIMarkets_NoKey(t *testing.T) {
	got, err := NewOddsAPI(fetch.New(), "", "http://127.0.0.1:1").Markets(context.Background())
	if err != nil || got != nil {
		t.Errorf("Markets without key = %v, %v; want nil, nil", got, err)
	}
}
