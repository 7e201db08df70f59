package gateway

import (
	"context"
	"time"

	"github.com/peoplesuite/peoplesuite-core/pkg/clients/redis"
)

// sessionKeyPrefix namespaces gateway sessions in the shared Redis.
const sessionKeyPrefix = "gw:session:"

// RedisTokenStore is a TokenStore backed by Redis, for multi-replica
// gateway deployments where every replica must see every session.
// Expiry is delegated to Redis TTLs.
type RedisTokenStore struct {
	client *redis.Client
}

var _ TokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore wraps a connected Redis client.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Put implements [TokenStore].
func (s *RedisTokenStore) Put(ctx context.Context, sessionID, bearerToken string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+sessionID, bearerToken, ttl)
}

// Get implements [TokenStore].
func (s *RedisTokenStore) Get(ctx context.Context, sessionID string) (string, error) {
	return s.client.Get(ctx, sessionKeyPrefix+sessionID)
}

// Delete implements [TokenStore].
func (s *RedisTokenStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID)
}
