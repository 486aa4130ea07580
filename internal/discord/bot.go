package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sovagpt/nhl/internal/alert"
	"github.com/sovagpt/nhl/internal/edge"
	"github.com/sovagpt/nhl/internal/pipeline"
)

const (
	colorHigh   = 0x2ECC71
	colorMedium = 0xF1C40F
)

// Bot wraps a Discord session and the channel edges are posted to.
type Bot struct {
	session   *discordgo.Session
	channelID string
	mu        sync.Mutex
}

// Config for the Discord bot.
type Config struct {
	Token     string
	ChannelID string
}

// NewBot creates a Discord bot. Token must be non-empty.
func NewBot(cfg Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token required")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return &Bot{session: s, channelID: cfg.ChannelID}, nil
}

// EdgeEmbed renders one alert.
func EdgeEmbed(e alert.Event) *discordgo.MessageEmbed {
	color := colorMedium
	if e.Confidence == edge.High {
		color = colorHigh
	}
	unit := "pts"
	if e.Basis == edge.BasisMarket {
		unit = "% vs market"
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s @ %s", e.AwayTeam, e.HomeTeam),
		Description: fmt.Sprintf("**%s** (%s, %s %s)", e.Recommendation, e.Confidence, e.Value, unit),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Away goalie", Value: e.AwayGoalie, Inline: true},
			{Name: "Home goalie", Value: e.HomeGoalie, Inline: true},
			{Name: "Puck drop", Value: e.GameTime, Inline: true},
		},
		Timestamp: e.PublishedAt.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Goalie edge • NHL"},
	}
}

// EdgesSummary is the /edges reply for a snapshot.
func EdgesSummary(resp *pipeline.Response) string {
	if resp == nil || len(resp.Games) == 0 {
		return "No games on the slate."
	}
	var b strings.Builder
	for _, g := range resp.Games {
		if g.Edge == nil {
			continue
		}
		fmt.Fprintf(&b, "• %s @ %s (%s): **%s** %s %s\n",
			g.AwayAbbr, g.HomeAbbr, g.GameTime, g.Edge.Recommendation, g.Edge.Confidence, g.Edge.Value)
	}
	if b.Len() == 0 {
		return fmt.Sprintf("No edges across %d games.", len(resp.Games))
	}
	return strings.TrimRight(b.String(), "\n")
}

// PostEdge sends an embed for e to the announce channel.
func (b *Bot) PostEdge(_ context.Context, e alert.Event) error {
	if b.channelID == "" {
		return nil
	}
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()
	if s == nil {
		return nil
	}
	if _, err := s.ChannelMessageSendEmbed(b.channelID, EdgeEmbed(e)); err != nil {
		return fmt.Errorf("send embed: %w", err)
	}
	slog.Info("discord edge posted", "channel", b.channelID, "game", e.GameID, "recommendation", e.Recommendation)
	return nil
}

// Session returns the discordgo session (for registering handlers and opening).
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// RegisterSlashCommands registers /edges and /ping. Call after Open() so State is ready.
func (b *Bot) RegisterSlashCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	appID := b.session.State.User.ID
	commands := []*discordgo.ApplicationCommand{
		{Name: "edges", Description: "Tonight's goalie edges from the latest snapshot"},
		{Name: "ping", Description: "Ping the bot to check if it's online"},
	}
	var registered []*discordgo.ApplicationCommand
	for _, cmd := range commands {
		created, err := b.session.ApplicationCommandCreate(appID, guildID, cmd)
		if err != nil {
			return registered, fmt.Errorf("create command %s: %w", cmd.Name, err)
		}
		registered = append(registered, created)
	}
	return registered, nil
}

// AddInteractionHandler registers the handler for slash commands.
func (b *Bot) AddInteractionHandler(handler func(s *discordgo.Session, i *discordgo.InteractionCreate)) {
	b.session.AddHandler(handler)
}

// StatusName is the "Watching" activity for n edges.
func StatusName(n int) string {
	switch n {
	case 0:
		return "the crease"
	case 1:
		return "1 edge"
	}
	return fmt.Sprintf("%d edges", n)
}

// SetWatchingStatus shows how many edges are on the current slate.
func (b *Bot) SetWatchingStatus(edges int) error {
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{Type: discordgo.ActivityTypeWatching, Name: StatusName(edges)},
		},
	})
}
