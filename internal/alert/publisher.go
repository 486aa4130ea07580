// Package alert publishes HIGH-confidence edges to a Redis stream and reads them
// back for announcement.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sovagpt/nhl/internal/edge"
	"github.com/sovagpt/nhl/internal/metrics"
	"github.com/sovagpt/nhl/internal/pipeline"
)

const (
	DefaultStream = "nhledge:alerts"
	SentKeyPrefix = "nhledge:alert_sent:"
	SentKeyTTL    = 24 * time.Hour
)

// Event is the stream payload for one edge.
type Event struct {
	GameID         string    `json:"game_id"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
	GameTime       string    `json:"game_time"`
	HomeGoalie     string    `json:"home_goalie"`
	AwayGoalie     string    `json:"away_goalie"`
	Recommendation string    `json:"recommendation"`
	Confidence     string    `json:"confidence"`
	Value          string    `json:"value"`
	Basis          string    `json:"basis"`
	Side           string    `json:"side"`
	PublishedAt    time.Time `json:"published_at"`
}

// EventFor returns the alert for g, or false when g has no HIGH edge.
func EventFor(g pipeline.Game, now time.Time) (Event, bool) {
	if g.Edge == nil || g.Edge.Confidence != edge.High {
		return Event{}, false
	}
	return Event{
		GameID:         g.ID,
		HomeTeam:       g.HomeTeam,
		AwayTeam:       g.AwayTeam,
		GameTime:       g.GameTime,
		HomeGoalie:     g.Goalies.Home.Name,
		AwayGoalie:     g.Goalies.Away.Name,
		Recommendation: g.Edge.Recommendation,
		Confidence:     g.Edge.Confidence,
		Value:          g.Edge.Value,
		Basis:          g.Edge.Basis,
		Side:           g.Edge.Side,
		PublishedAt:    now.UTC(),
	}, true
}

// Publisher writes alerts to the stream, once per game and side.
type Publisher struct {
	client *redis.Client
	stream string
	ttl    time.Duration
}

// NewPublisher returns a publisher; empty stream and zero ttl take the defaults.
func NewPublisher(client *redis.Client, stream string, ttl time.Duration) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	if ttl <= 0 {
		ttl = SentKeyTTL
	}
	return &Publisher{client: client, stream: stream, ttl: ttl}
}

// Publish writes every HIGH edge in games not already sent and returns how many
// were written.
func (p *Publisher) Publish(ctx context.Context, games []pipeline.Game, now time.Time) (int, error) {
	n := 0
	for _, g := range games {
		e, ok := EventFor(g, now)
		if !ok {
			continue
		}
		sent, err := p.publish(ctx, e)
		if err != nil {
			return n, err
		}
		if sent {
			n++
		}
	}
	return n, nil
}

func (p *Publisher) publish(ctx context.Context, e Event) (bool, error) {
	key := SentKeyPrefix + e.GameID + ":" + e.Side
	fresh, err := p.client.SetNX(ctx, key, "1", p.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	if !fresh {
		return false, nil
	}
	body, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("marshal alert: %w", err)
	}
	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"payload": string(body), "game_id": e.GameID},
	}).Result()
	if err != nil {
		// let the next run retry
		_ = p.client.Del(ctx, key).Err()
		return false, fmt.Errorf("publish alert: %w", err)
	}
	metrics.RecordAlertPublished()
	return true, nil
}
