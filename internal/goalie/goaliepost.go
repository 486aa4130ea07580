package goalie

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sovagpt/nhl/internal/fetch"
	"github.com/sovagpt/nhl/internal/team"
)

const (
	GoaliePostURL    = "https://goaliepost.com/"
	SourceGoaliePost = "goaliepost"
)

// GoaliePost scrapes the server-rendered goaliepost.com front page.
type GoaliePost struct {
	fetch *fetch.Client
	url   string
}

// NewGoaliePost returns a scraper for pageURL; empty uses GoaliePostURL.
func NewGoaliePost(f *fetch.Client, pageURL string) *GoaliePost {
	if pageURL == "" {
		pageURL = GoaliePostURL
	}
	return &GoaliePost{fetch: f, url: pageURL}
}

// Goalies fetches and parses the page.
func (g *GoaliePost) Goalies(ctx context.Context) ([]Record, error) {
	resp, err := g.fetch.Get(ctx, g.url)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fetch.StatusError("goaliepost", resp)
	}
	return ParseGoaliePost(bytes.NewReader(resp.Body))
}

// ParseGoaliePost extracts one record per ".goalie-name" element. The stats,
// record, team and photo are looked up in the element's nearest card container.
func ParseGoaliePost(r io.Reader) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse goaliepost: %w", err)
	}
	var out []Record
	doc.Find(".goalie-name").Each(func(_ int, n *goquery.Selection) {
		name := strings.TrimSpace(n.Text())
		if name == "" {
			return
		}
		card := n.Closest(".goalie-card, .goalie, article, li")
		if card.Length() == 0 {
			card = n.Parent()
		}
		rec := TBD()
		rec.Name = name
		rec.Source = SourceGoaliePost
		rec.Team = gpTeam(card)

		card.Find("span").Each(func(_ int, s *goquery.Selection) {
			label := strings.TrimSpace(s.Text())
			if strings.EqualFold(label, "GAA") || strings.EqualFold(label, "SV%") {
				applyStat(&rec, label, s.Next().Text())
			}
		})
		card.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if recordPattern.MatchString(s.Text()) {
				rec.Wins, rec.Losses, rec.OTL = parseWLOTL(s.Text())
				return false
			}
			return true
		})
		if src, ok := card.Find(`img[src*="goalie"]`).First().Attr("src"); ok {
			rec.Photo = photoRef(src)
		}
		rec.Confirmed = card.Find(".confirmed, .status-confirmed").Length() > 0
		out = append(out, rec)
	})
	return out, nil
}

// gpTeam prefers an explicit data-team code, then visible team text normalized
// to an abbreviation when it names a franchise.
func gpTeam(card *goquery.Selection) string {
	if v, ok := card.Attr("data-team"); ok && strings.TrimSpace(v) != "" {
		return team.Canonical(v)
	}
	text := strings.TrimSpace(card.Find(".goalie-team, .team-abbr, .team-name, .team").First().Text())
	if text == "" {
		return ""
	}
	if t, ok := team.Lookup(text); ok {
		return t.Abbrev
	}
	if t, ok := team.FromName(text); ok {
		return t.Abbrev
	}
	return text
}
