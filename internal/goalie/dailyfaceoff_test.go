package goalie

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const dfoHTML = `<html><body>
<div class="starting-goalies-card">
  <div class="game-matchup">BOS @ TOR</div>
  <div class="game-time">7:00 PM ET</div>
  <div class="goalie-card">
    <img class="goalie-image" src="https://cdn.example/swayman.png">
    <span class="goalie-name">Jeremy Swayman</span>
    <span class="confirmed">Confirmed</span>
    <div><span class="stat-label">GAA</span><span class="stat-label">SV%</span></div>
    <div><span class="stat-value">2.41</span><span class="stat-value">.918</span></div>
    <span class="goalie-record">21-9-4</span>
  </div>
  <div class="goalie-card">
    <span class="player-name">Joseph Woll</span>
    <span class="stat-label">GAA</span><span class="stat-value">-</span>
    <span class="stat-label">SV%</span><span class="stat-value">.905</span>
    <span class="player-record">n/a</span>
  </div>
</div>
<div class="starting-goalies-card">
  <div class="game-matchup">TBD</div>
  <div class="goalie-card"><span class="goalie-name">Nobody</span></div>
  <div class="goalie-card"><span class="goalie-name">Nobody Else</span></div>
</div>
<div class="starting-goalies-card">
  <div class="game-matchup">LA @ SJ</div>
  <div class="goalie-card"><span class="goalie-name">Only One</span></div>
</div>
<div class="starting-goalies-card">
  <div class="game-matchup">NYR @ NJ</div>
  <div class="goalie-card"><span class="goalie-name"> </span></div>
  <div class="goalie-card"><span class="goalie-name">Jacob Markstrom</span></div>
</div>
</body></html>`

func TestParseDailyFaceoff(t *testing.T) {
	got, err := ParseDailyFaceoff(strings.NewReader(dfoHTML))
	if err != nil {
		t.Fatalf("ParseDailyFaceoff: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3: %+v", len(got), got)
	}

	away := got[0]
	if away.Name != "Jeremy Swayman" || away.Team != "BOS" || !away.Confirmed || away.Source != SourceDFO {
		t.Errorf("away = %+v", away)
	}
	if v, ok := away.GAA.Value(); !ok || v != 2.41 {
		t.Errorf("away GAA = %v, %v", v, ok)
	}
	if v, ok := away.SVPct.Value(); !ok || v != 0.918 {
		t.Errorf("away SV = %v, %v", v, ok)
	}
	if away.Wins != 21 || away.Losses != 9 || away.OTL != 4 {
		t.Errorf("away record = %d-%d-%d", away.Wins, away.Losses, away.OTL)
	}
	if away.Photo == nil || *away.Photo != "https://cdn.example/swayman.png" {
		t.Errorf("away photo = %v", away.Photo)
	}

	home := got[1]
	if home.Name != "Joseph Woll" || home.Team != "TOR" || home.Confirmed {
		t.Errorf("home = %+v", home)
	}
	if home.GAA.IsKnown() {
		t.Error("home GAA should be unknown for '-'")
	}
	if home.Wins+home.Losses+home.OTL != 0 || home.Photo != nil {
		t.Errorf("home sentinels = %+v", home)
	}

	// the nameless away goalie is dropped; legacy NJ resolves to NJD
	if got[2].Name != "Jacob Markstrom" || got[2].Team != "NJD" {
		t.Errorf("got[2] = %+v", got[2])
	}
}

func TestDailyFaceoffStarters_UsesRenderer(t *testing.T) {
	var gotURL string
	d := NewDailyFaceoff(BrowserConfig{}, WithPageURL("https://dfo.test/starting-goalies/"), WithRenderer(func(_ context.Context, url string) (string, error) {
		gotURL = url
		return dfoHTML, nil
	}))
	got, err := d.Starters(context.Background())
	if err != nil {
		t.Fatalf("Starters: %v", err)
	}
	if gotURL != "https://dfo.test/starting-goalies/" {
		t.Errorf("rendered %q", gotURL)
	}
	if len(got) != 3 {
		t.Errorf("len = %d; want 3", len(got))
	}
}

func TestDailyFaceoffStarters_RenderFailure(t *testing.T) {
	boom := errors.New("chrome not found")
	d := NewDailyFaceoff(BrowserConfig{}, WithRenderer(func(context.Context, string) (string, error) {
		return "", boom
	}))
	if _, err := d.Starters(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v; want %v", err, boom)
	}
}
