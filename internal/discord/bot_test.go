package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sovagpt/nhl/internal/alert"
	"github.com/sovagpt/nhl/internal/edge"
	"github.com/sovagpt/nhl/internal/pipeline"
)

func TestNewBot_EmptyToken(t *testing.T) {
	_, err := NewBot(Config{Token: ""})
	if err == nil {
		t.Fatal("expected error for empty token")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("err = %v", err)
	}
}

func TestNewBot_NoChannelIsNoop(t *testing.T) {
	b, err := NewBot(Config{Token: "abc"})
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	if err := b.PostEdge(context.Background(), alert.Event{}); err != nil {
		t.Errorf("PostEdge without channel = %v", err)
	}
}

func TestEdgeEmbed(t *testing.T) {
	e := alert.Event{
		HomeTeam:       "Boston Bruins",
		AwayTeam:       "Toronto Maple Leafs",
		HomeGoalie:     "Jeremy Swayman",
		AwayGoalie:     "TBD",
		GameTime:       "7:00 PM",
		Recommendation: "BET Boston Bruins",
		Confidence:     edge.High,
		Value:          "6.0",
		Basis:          edge.BasisMarket,
		PublishedAt:    time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC),
	}
	em := EdgeEmbed(e)
	if em.Title != "Toronto Maple Leafs @ Boston Bruins" {
		t.Errorf("title = %q", em.Title)
	}
	if em.Description != "**BET Boston Bruins** (HIGH, 6.0 % vs market)" {
		t.Errorf("description = %q", em.Description)
	}
	if em.Color != colorHigh || len(em.Fields) != 3 || em.Fields[1].Value != "Jeremy Swayman" {
		t.Errorf("embed = %+v", em)
	}
	if em.Timestamp != "2025-01-15T22:00:00Z" {
		t.Errorf("timestamp = %q", em.Timestamp)
	}

	e.Confidence, e.Basis = edge.Medium, edge.BasisStats
	if em := EdgeEmbed(e); em.Color != colorMedium || !strings.HasSuffix(em.Description, "6.0 pts)") {
		t.Errorf("medium embed = %+v", em)
	}
}

func TestEdgesSummary(t *testing.T) {
	if got := EdgesSummary(nil); got != "No games on the slate." {
		t.Errorf("nil = %q", got)
	}
	resp := &pipeline.Response{Games: []pipeline.Game{
		{HomeAbbr: "BOS", AwayAbbr: "TOR", GameTime: "7:00 PM"},
		{HomeAbbr: "NYR", AwayAbbr: "NJD", GameTime: "7:30 PM", Edge: &edge.Signal{Recommendation: "BET New York Rangers", Confidence: edge.Medium, Value: "0.8"}},
	}}
	want := "• NJD @ NYR (7:30 PM): **BET New York Rangers** MEDIUM 0.8"
	if got := EdgesSummary(resp); got != want {
		t.Errorf("summary = %q; want %q", got, want)
	}
	resp.Games = resp.Games[:1]
	if got := EdgesSummary(resp); got != "No edges across 1 games." {
		t.Errorf("no edges = %q", got)
	}
}

func TestStatusName(t *testing.T) {
	for n, want := range map[int]string{0: "the crease", 1: "1 edge", 3: "3 edges"} {
		if got := StatusName(n); got != want {
			t.Errorf("StatusName(%d) = %q; want %q", n, got, want)
		}
	}
}
