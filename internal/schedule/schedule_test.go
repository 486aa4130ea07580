package schedule

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sovagpt/nhl/internal/fetch"
)

const scheduleJSON = `{
	"gameWeek": [
		{"date": "2026-01-15", "games": [
			{"id": 2025020701, "startTimeUTC": "2026-01-16T00:00:00Z", "gameState": "FUT",
			 "awayTeam": {"abbrev": "BOS", "placeName": {"default": "Boston"}, "commonName": {"default": "Bruins"}, "logo": "https://assets.nhle.com/logos/nhl/svg/BOS_light.svg"},
			 "homeTeam": {"abbrev": "TOR", "placeName": {"default": "Toronto"}, "commonName": {"default": "Maple Leafs"}, "logo": "https://assets.nhle.com/logos/nhl/svg/TOR_light.svg"}},
			{"id": 2025020702, "startTimeUTC": "2026-01-15T23:00:00Z", "gameState": "LIVE",
			 "awayTeam": {"abbrev": "XYZ", "placeName": {"default": "Quebec"}, "commonName": {"default": "Nordiques"}, "score": 1},
			 "homeTeam": {"abbrev": "NJD", "score": 3}},
			{"id": 2025020703, "startTimeUTC": "not-a-time", "gameState": "OFF",
			 "awayTeam": {"abbrev": "LA"}, "homeTeam": {"abbrev": "SJ"}}
		]},
		{"date": "2026-01-16", "games": [
			{"id": 2025020710, "startTimeUTC": "2026-01-17T00:00:00Z", "gameState": "FUT",
			 "awayTeam": {"abbrev": "NYR"}, "homeTeam": {"abbrev": "PIT"}}
		]}
	]
}`

func testClient(server *httptest.Server) *Client {
	return NewClient(fetch.New(), WithBaseURL(server.URL))
}

func TestGamesOn(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(scheduleJSON))
	}))
	defer server.Close()

	games, err := testClient(server).GamesOn(context.Background(), "2026-01-15")
	if err != nil {
		t.Fatalf("GamesOn: %v", err)
	}
	if gotPath != "/v1/schedule/2026-01-15" {
		t.Errorf("path = %q", gotPath)
	}
	if len(games) != 3 {
		t.Fatalf("len(games) = %d; want 3 (other days filtered)", len(games))
	}

	g := games[0]
	if g.GameID != 2025020701 || g.AwayAbbrev != "BOS" || g.HomeAbbrev != "TOR" {
		t.Errorf("games[0] = %+v", g)
	}
	if g.HomeName != "Toronto Maple Leafs" || g.AwayName != "Boston Bruins" {
		t.Errorf("names = %q / %q", g.HomeName, g.AwayName)
	}
	if g.Status() != StatusScheduled || g.DisplayTime() != "7:00 PM" {
		t.Errorf("status/time = %q %q", g.Status(), g.DisplayTime())
	}
	if g.HomeScore != nil {
		t.Errorf("HomeScore = %v; want nil before puck drop", *g.HomeScore)
	}

	live := games[1]
	if live.Status() != StatusLive {
		t.Errorf("Status = %q; want live", live.Status())
	}
	if live.AwayName != "Quebec Nordiques" {
		t.Errorf("unknown team name = %q; want place+common name", live.AwayName)
	}
	if live.HomeScore == nil || *live.HomeScore != 3 || *live.AwayScore != 1 {
		t.Errorf("scores = %v %v", live.HomeScore, live.AwayScore)
	}

	final := games[2]
	if final.Status() != StatusFinal {
		t.Errorf("Status = %q; want final", final.Status())
	}
	if final.AwayAbbrev != "LAK" || final.HomeAbbrev != "SJS" {
		t.Errorf("legacy codes not canonicalized: %q %q", final.AwayAbbrev, final.HomeAbbrev)
	}
	if final.DisplayTime() != "TBD" {
		t.Errorf("DisplayTime = %q; want TBD for unparseable start", final.DisplayTime())
	}
}

func TestGamesOn_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := testClient(server).GamesOn(context.Background(), "2026-01-15"); err == nil {
		t.Error("expected error on 503")
	}
}

func TestGamesOn_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := testClient(server)
	server.Close()

	if _, err := c.GamesOn(context.Background(), "2026-01-15"); !errors.Is(err, fetch.ErrTransport) {
		t.Errorf("err = %v; want ErrTransport", err)
	}
}

func TestToday_UsesEastern(t *testing.T) {
	// 02:00 UTC on the 16th is still the 15th in New York.
	now := time.Date(2026, 1, 16, 2, 0, 0, 0, time.UTC)
	c := NewClient(fetch.New(), WithClock(func() time.Time { return now }))
	if got := c.Today(); got != "2026-01-15" {
		t.Errorf("Today = %q; want 2026-01-15", got)
	}
}

func TestStatus_Mapping(t *testing.T) {
	cases := map[string]string{
		"FUT": StatusScheduled, "PRE": StatusScheduled, "LIVE": StatusLive, "CRIT": StatusLive,
		"FINAL": StatusFinal, "OFF": StatusFinal, "": StatusScheduled, "PPD": StatusScheduled,
	}
	for state, want := range cases {
		g := Game{GameState: state}
		if got := g.Status(); got != want {
			t.Errorf("Status(%q) = %q; want %q", state, got, want)
		}
	}
}
