package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sovagpt/nhl/internal/alert"
	"github.com/sovagpt/nhl/internal/app"
	"github.com/sovagpt/nhl/internal/cache"
	"github.com/sovagpt/nhl/internal/config"
	"github.com/sovagpt/nhl/internal/discord"
	"github.com/sovagpt/nhl/internal/pipeline"
)

const statusInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(app.NewLogger(os.Stdout, cfg.LogLevel))

	if cfg.Redis.Addr == "" {
		slog.Error("redis.addr is required")
		os.Exit(1)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis ping failed", "error", err)
		os.Exit(1)
	}
	store := cache.NewStore(rdb, cfg.Snapshot.TTL)

	c := alert.NewConsumer(rdb, cfg.Alerts.Stream, cfg.Discord.Consumer)
	if err := c.EnsureGroup(ctx); err != nil {
		slog.Error("consumer group ensure failed", "group", alert.ConsumerGroup, "error", err)
		os.Exit(1)
	}
	slog.Info("announcer started", "stream", cfg.Alerts.Stream, "group", alert.ConsumerGroup)

	var bot *discord.Bot
	if cfg.Discord.Token != "" {
		bot, err = discord.NewBot(discord.Config{Token: cfg.Discord.Token, ChannelID: cfg.Discord.ChannelID})
		if err != nil {
			slog.Error("discord bot create failed", "error", err)
			os.Exit(1)
		}
		bot.AddInteractionHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			switch i.ApplicationCommandData().Name {
			case "ping":
				respond(s, i, "🏒 **Pong!** Edge bot is online.")
			case "edges":
				deferRespond(s, i, func() string {
					resp, err := latest(context.Background(), store)
					if err != nil {
						return "❌ No snapshot yet: " + err.Error()
					}
					return discord.EdgesSummary(resp)
				})
			}
		})
		bot.Session().AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			slog.Info("discord connected", "user", r.User.Username, "id", r.User.ID)
		})
		if err := bot.Session().Open(); err != nil {
			slog.Error("discord open failed", "error", err)
			os.Exit(1)
		}
		defer bot.Session().Close()
		registered, err := bot.RegisterSlashCommands(cfg.Discord.GuildID)
		if err != nil {
			slog.Warn("discord register commands failed", "error", err)
		} else {
			slog.Info("discord slash commands registered", "count", len(registered), "guild_id", cfg.Discord.GuildID)
		}
		go runStatusUpdates(ctx, bot, store)
	} else {
		slog.Info("discord token not set; alerts are only logged")
	}

	err = c.Run(ctx, func(ctx context.Context, e alert.Event) {
		slog.Info("edge alert", "game", e.GameID, "recommendation", e.Recommendation, "confidence", e.Confidence, "value", e.Value, "basis", e.Basis)
		if bot != nil {
			if err := bot.PostEdge(ctx, e); err != nil {
				slog.Warn("discord post failed", "error", err)
			}
		}
	})
	slog.Info("shutting down announcer", "reason", err)
}

func latest(ctx context.Context, store *cache.Store) (*pipeline.Response, error) {
	var resp pipeline.Response
	if err := store.Read(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
	if err != nil {
		slog.Warn("discord respond failed", "error", err)
	}
}

// deferRespond acknowledges first so a slow Redis read does not miss Discord's 3s window.
func deferRespond(s *discordgo.Session, i *discordgo.InteractionCreate, fn func() string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{},
	})
	if err != nil {
		slog.Warn("discord defer respond failed", "error", err)
		return
	}
	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content:         fn(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		slog.Warn("discord followup failed", "error", err)
	}
}

// runStatusUpdates keeps "Watching N edges" in line with the latest snapshot.
func runStatusUpdates(ctx context.Context, bot *discord.Bot, store *cache.Store) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	update := func() {
		n := 0
		if resp, err := latest(ctx, store); err == nil {
			for _, g := range resp.Games {
				if g.Edge != nil {
					n++
				}
			}
		}
		if err := bot.SetWatchingStatus(n); err != nil {
			slog.Warn("status update failed", "error", err)
		}
	}
	update()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
