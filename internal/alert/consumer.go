package alert

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ConsumerGroup = "announcers"
	ConsumerName  = "announcer-1"
	ReadBlock     = 5 * time.Second
	// ReadRetry is the pause after a failed read before the next one.
	ReadRetry = 2 * time.Second
)

// Consumer reads alerts via a consumer group.
type Consumer struct {
	client *redis.Client
	stream string
	name   string
	block  time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewConsumer returns a stream consumer; empty stream and name take the defaults.
func NewConsumer(client *redis.Client, stream, name string) *Consumer {
	if stream == "" {
		stream = DefaultStream
	}
	if name == "" {
		name = ConsumerName
	}
	return &Consumer{client: client, stream: stream, name: name, block: ReadBlock, retry: ReadRetry, logger: slog.Default()}
}

// Run reads alerts until ctx is done, passing each to handle and acking the
// batch afterwards. A failed read waits ReadRetry before trying again.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, Event)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		events, ids, err := c.ReadMessages(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("read messages failed", "stream", c.stream, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retry):
			}
			continue
		}
		for _, e := range events {
			handle(ctx, e)
		}
		// processed messages are acked even when ctx ended mid-batch
		if err := c.Ack(context.WithoutCancel(ctx), ids...); err != nil {
			c.logger.Warn("ack failed", "stream", c.stream, "error", err)
		}
	}
}

// EnsureGroup creates the consumer group (and the stream) if missing.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, ConsumerGroup, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

// ReadMessages blocks for new alerts and returns them with every message id read,
// including ids of payloads that failed to decode so they can be acked.
func (c *Consumer) ReadMessages(ctx context.Context) ([]Event, []string, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: c.name,
		Streams:  []string{c.stream, ">"},
		Count:    10,
		Block:    c.block,
	}).Result()
	if err == redis.Nil || (err == nil && (len(streams) == 0 || len(streams[0].Messages) == 0)) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var events []Event
	var ids []string
	for _, msg := range streams[0].Messages {
		ids = append(ids, msg.ID)
		raw, ok := msg.Values["payload"].(string)
		if !ok {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, ids, nil
}

// Ack acknowledges processed message IDs.
func (c *Consumer) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.client.XAck(ctx, c.stream, ConsumerGroup, ids...).Err()
}
