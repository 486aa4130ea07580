package goalie

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/sovagpt/nhl/internal/team"
)

const (
	DailyFaceoffURL = "https://www.dailyfaceoff.com/starting-goalies/"
	SourceDFO       = "dailyfaceoff"

	dfoNavTimeout = 30 * time.Second
	dfoSettle     = 3 * time.Second
)

// "BOS @ TOR", away first.
var matchupPattern = regexp.MustCompile(`([A-Z]{2,3})\s*@\s*([A-Z]{2,3})`)

// Renderer loads url in a browser and returns the rendered document HTML.
type Renderer func(ctx context.Context, url string) (string, error)

// BrowserConfig selects and bounds the headless browser.
type BrowserConfig struct {
	RemoteURL  string // DevTools websocket; empty launches a local Chrome
	ExecPath   string // local Chrome binary; empty lets chromedp find one
	UserAgent  string
	NavTimeout time.Duration
	Settle     time.Duration // wait after load for client-side rendering
}

// ChromeRenderer returns a Renderer that owns one browser per call and releases
// it on every exit path.
func ChromeRenderer(cfg BrowserConfig) Renderer {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = dfoNavTimeout
	}
	if cfg.Settle < 0 {
		cfg.Settle = 0
	}
	return func(ctx context.Context, url string) (string, error) {
		var (
			allocCtx    context.Context
			cancelAlloc context.CancelFunc
		)
		if cfg.RemoteURL != "" {
			allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		} else {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.NoSandbox,
				chromedp.DisableGPU,
			)
			if cfg.ExecPath != "" {
				opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
			}
			allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
		}
		defer cancelAlloc()
		taskCtx, cancelTask := chromedp.NewContext(allocCtx)
		defer cancelTask()
		cctx, cancel := context.WithTimeout(taskCtx, cfg.NavTimeout)
		defer cancel()

		actions := []chromedp.Action{}
		if cfg.UserAgent != "" {
			actions = append(actions, emulation.SetUserAgentOverride(cfg.UserAgent))
		}
		var html string
		actions = append(actions,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(cfg.Settle),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err := chromedp.Run(cctx, actions...); err != nil {
			return "", fmt.Errorf("render %s: %w", url, err)
		}
		return html, nil
	}
}

// DailyFaceoff scrapes the starting-goalies page, which renders client-side.
type DailyFaceoff struct {
	url    string
	render Renderer
	logger *slog.Logger
}

// DFOOption configures DailyFaceoff.
type DFOOption func(*DailyFaceoff)

// WithRenderer replaces the browser (tests pass canned HTML).
func WithRenderer(r Renderer) DFOOption {
	return func(d *DailyFaceoff) { d.render = r }
}

// WithPageURL overrides the starting-goalies URL.
func WithPageURL(u string) DFOOption {
	return func(d *DailyFaceoff) {
		if u != "" {
			d.url = u
		}
	}
}

// WithDFOLogger sets the logger.
func WithDFOLogger(l *slog.Logger) DFOOption {
	return func(d *DailyFaceoff) { d.logger = l }
}

// NewDailyFaceoff returns a scraper driving a headless browser configured by browser.
func NewDailyFaceoff(browser BrowserConfig, opts ...DFOOption) *DailyFaceoff {
	d := &DailyFaceoff{url: DailyFaceoffURL, render: ChromeRenderer(browser), logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Starters renders the page and returns both goalies of every listed game, each
// tagged with its team abbreviation.
func (d *DailyFaceoff) Starters(ctx context.Context) ([]Record, error) {
	html, err := d.render(ctx, d.url)
	if err != nil {
		return nil, err
	}
	records, err := ParseDailyFaceoff(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	d.logger.Info("goalie: dailyfaceoff parsed", "goalies", len(records))
	return records, nil
}

// ParseDailyFaceoff extracts goalies from starting-goalies markup. Cards without
// a recognizable matchup or without two goalie cards are skipped; unparseable
// fields fall back to their sentinels.
func ParseDailyFaceoff(r io.Reader) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse dailyfaceoff: %w", err)
	}
	var out []Record
	doc.Find(".starting-goalies-card").Each(func(_ int, card *goquery.Selection) {
		m := matchupPattern.FindStringSubmatch(strings.TrimSpace(card.Find(".game-matchup").First().Text()))
		if m == nil {
			return
		}
		goalies := card.Find(".goalie-card")
		if goalies.Length() < 2 {
			return
		}
		away := dfoGoalie(goalies.Eq(0), team.Canonical(m[1]))
		home := dfoGoalie(goalies.Eq(1), team.Canonical(m[2]))
		for _, g := range []Record{away, home} {
			if !g.IsTBD() {
				out = append(out, g)
			}
		}
	})
	return out, nil
}

func dfoGoalie(sel *goquery.Selection, abbrev string) Record {
	r := TBD()
	r.Team = abbrev
	r.Source = SourceDFO
	if name := strings.TrimSpace(sel.Find(".goalie-name, .player-name").First().Text()); name != "" {
		r.Name = name
	}
	if src, ok := sel.Find("img.goalie-image, img.player-image").First().Attr("src"); ok {
		r.Photo = photoRef(src)
	}
	r.Confirmed = sel.Find(".confirmed, .status-confirmed").Length() > 0

	labels := sel.Find(".stat-label")
	sel.Find(".stat-value").Each(func(i int, v *goquery.Selection) {
		if i < labels.Length() {
			applyStat(&r, labels.Eq(i).Text(), v.Text())
		}
	})
	r.Wins, r.Losses, r.OTL = parseWLOTL(sel.Find(".goalie-record, .player-record").First().Text())
	return r
}
