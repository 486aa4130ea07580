// Package cache holds the in-process time-windowed cache that guards expensive
// upstream calls, and the Redis snapshot store written by the scheduled refresh.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SnapshotKey = "nhledge:games:latest"
	SnapshotTTL = 1 * time.Hour
)

// ErrNoSnapshot is returned by Read when nothing has been stored yet (or it expired).
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store writes and reads the latest games response as JSON in Redis.
type Store struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewStore returns a Store using the default key. ttl <= 0 uses SnapshotTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = SnapshotTTL
	}
	return &Store{client: client, key: SnapshotKey, ttl: ttl}
}

// Write stores v as JSON with the store's TTL.
func (s *Store) Write(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, s.key, string(b), s.ttl).Err()
}

// Read decodes the stored snapshot into v.
func (s *Store) Read(ctx context.Context, v any) error {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return ErrNoSnapshot
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return nil
}

// Raw returns the stored snapshot bytes untouched.
func (s *Store) Raw(ctx context.Context) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	return b, err
}
