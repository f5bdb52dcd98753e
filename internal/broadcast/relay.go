package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the part of a Redis client the relay publishes with.
type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type relay struct {
	redis   Redis
	channel string
}

func (r *relay) publish(ctx context.Context, b []byte) error {
	if err := r.redis.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("pubsub: publish to %s: %w", r.channel, err)
	}

	return nil
}
