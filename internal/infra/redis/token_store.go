package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhub/internal/domain"
)

// TokenStore keeps session tokens in Redis so logins survive restarts and
// are shared across instances.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func (s *TokenStore) key(token string) string {
	return "session:" + token
}

func (s *TokenStore) Save(ctx context.Context, token, username string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), username, ttl).Err(); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func (s *TokenStore) Resolve(ctx context.Context, token string) (string, error) {
	username, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve session token: %w", err)
	}
	return username, nil
}

func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
