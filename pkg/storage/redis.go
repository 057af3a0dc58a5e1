package storage

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront/pkg/redis"
)

// redisStore writes each value under sf:<name>:<session-id>.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Get(ctx context.Context, sessionID, name string) ([]byte, bool, error) {
	return s.client.LoadState(ctx, name, sessionID)
}

func (s *redisStore) Put(ctx context.Context, sessionID, name string, value []byte) error {
	return s.client.SaveState(ctx, name, sessionID, value, s.ttl)
}

func (s *redisStore) Delete(ctx context.Context, sessionID, name string) error {
	return s.client.DeleteState(ctx, name, sessionID)
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *redisStore) Close() error {
	return nil
}
