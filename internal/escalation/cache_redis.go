package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "plancheck/pkg/domain"
)

// defaultResolvedTTL bounds how long a confirmation survives without being
// refreshed. Amendments invalidate explicitly; the TTL is a backstop.
const defaultResolvedTTL = 30 * 24 * time.Hour

// RedisCache is the shared resolved-fields cache for multi-instance
// deployments.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache wraps a connected Redis client.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client, ttl: defaultResolvedTTL}
}

func resolvedKey(appID id.ApplicationID, field string) string {
	return fmt.Sprintf("resolved:%d:%s", appID.Int64(), field)
}

// IsResolved implements ResolvedFieldCache.
func (c *RedisCache) IsResolved(ctx context.Context, appID id.ApplicationID, field string) (bool, error) {
	n, err := c.client.Exists(ctx, resolvedKey(appID, field)).Result()
	if err != nil {
		return false, fmt.Errorf("resolved-field lookup: %w", err)
	}
	return n > 0, nil
}

// MarkResolved implements ResolvedFieldCache.
func (c *RedisCache) MarkResolved(ctx context.Context, appID id.ApplicationID, field string) error {
	if err := c.client.Set(ctx, resolvedKey(appID, field), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("resolved-field mark: %w", err)
	}
	return nil
}

// Invalidate implements ResolvedFieldCache.
func (c *RedisCache) Invalidate(ctx context.Context, appID id.ApplicationID, field string) error {
	if err := c.client.Del(ctx, resolvedKey(appID, field)).Err(); err != nil {
		return fmt.Errorf("resolved-field invalidate: %w", err)
	}
	return nil
}
