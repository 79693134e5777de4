package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

const replayKeyPrefix = "payment-ref:"

// RedisReplayGuard remembers payment references with SetNX so a guardian's
// double submit is spotted before the store round-trip. Entries expire after
// the TTL; the installment ledger stays the authoritative duplicate check.
type RedisReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ReplayGuard = (*RedisReplayGuard)(nil)

func NewRedisReplayGuard(client *redis.Client, ttl time.Duration) *RedisReplayGuard {
	return &RedisReplayGuard{client: client, ttl: ttl}
}

func (g *RedisReplayGuard) MarkSeen(ctx context.Context, externalRef string) (bool, error) {
	firstUse, err := g.client.SetNX(ctx, replayKeyPrefix+externalRef, 1, g.ttl).Result()
	if err != nil {
		return false, err
	}
	return !firstUse, nil
}
