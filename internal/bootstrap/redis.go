package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis builds a client from a redis:// URL. An empty URL disables the
// cache and returns a nil client. An unreachable server is only a warning:
// the cache gateway degrades every call to a miss or a no-op.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		slog.Warn("REDIS_URL not set, cache disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		slog.Warn("redis ping failed, continuing without cache until it recovers", "addr", opts.Addr, "error", err)
	}

	return client, nil
}
