package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhub/internal/app"
	"quizhub/internal/domain"
)

const leaderboardKey = "leaderboard:attempts"

// LeaderboardCache wraps an app.LeaderboardStore with a Redis read cache.
// Appends go to the underlying store and invalidate the cached list, so a
// stale ranking is never served after a successful write.
type LeaderboardCache struct {
	client *redis.Client
	store  app.LeaderboardStore
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, store app.LeaderboardStore, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, store: store, ttl: ttl}
}

func (c *LeaderboardCache) Append(ctx context.Context, attempt domain.Attempt) error {
	if err := c.store.Append(ctx, attempt); err != nil {
		return err
	}
	if err := c.client.Del(ctx, leaderboardKey).Err(); err != nil {
		// Cache invalidation is best-effort; the TTL bounds staleness.
		log.Printf("invalidate leaderboard cache: %v", err)
	}
	return nil
}

func (c *LeaderboardCache) List(ctx context.Context) ([]domain.Attempt, error) {
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err == nil {
		var attempts []domain.Attempt
		if err := json.Unmarshal(data, &attempts); err == nil {
			return attempts, nil
		}
		// Unparseable cache entry: fall through to the store.
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("read leaderboard cache: %v", err)
	}

	attempts, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(attempts); err == nil {
		if err := c.client.Set(ctx, leaderboardKey, encoded, c.ttl).Err(); err != nil {
			log.Printf("fill leaderboard cache: %v", err)
		}
	}
	return attempts, nil
}
