package reporting

import (
	"context"
	"time"

	"paycall-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps summaries in Redis as JSON.
type RedisCache struct {
	Client *redis.Client
}

func (c RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return utils.GetJSON(ctx, c.Client, key, dst)
}

func (c RedisCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	return utils.SetJSON(ctx, c.Client, key, v, ttl)
}
