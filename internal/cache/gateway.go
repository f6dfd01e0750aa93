// Package cache is a best-effort cache-aside gateway over Redis.
//
// No method returns a cache failure to the caller: errors are logged, counted
// and turned into a miss or a no-op, so the store stays the only source of truth.
// Every key is recorded in an index SET named after the key's first segment
// (e.g. "projects:__index"), which makes prefix invalidation a SMEMBERS+DEL
// instead of a keyspace scan.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/metrics"
)

const (
	indexSuffix = "__index"
	scanCount   = 200
	delBatch    = 500
)

type Gateway struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// New wraps a Redis client. A nil client gives a disabled gateway where every
// read misses and every write is dropped.
func New(client *redis.Client, m *metrics.Metrics) *Gateway {
	return &Gateway{client: client, metrics: m}
}

func (g *Gateway) Enabled() bool {
	return g != nil && g.client != nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	if !g.Enabled() {
		return errors.New("cache disabled")
	}
	return g.client.Ping(ctx).Err()
}

func (g *Gateway) Close() error {
	if !g.Enabled() {
		return nil
	}
	return g.client.Close()
}

// Get decodes the cached value for key into dst and reports whether it was a hit.
func (g *Gateway) Get(ctx context.Context, key string, dst any) bool {
	if !g.Enabled() {
		return false
	}

	data, err := g.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		g.metrics.CacheMiss()
		return false
	}
	if err != nil {
		logging.FromContext(ctx).Warn("cache.get failed", "key", key, "err", err)
		g.metrics.CacheError("get")
		g.metrics.CacheMiss()
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		logging.FromContext(ctx).Warn("cache.decode failed", "key", key, "err", err)
		g.metrics.CacheError("decode")
		g.metrics.CacheMiss()
		// drop the unreadable entry so the next read repopulates it
		_ = g.client.Del(ctx, key).Err()
		return false
	}

	g.metrics.CacheHit()
	return true
}

// Set stores value under key for ttl and records the key in its prefix index.
func (g *Gateway) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !g.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		logging.FromContext(ctx).Warn("cache.encode failed", "key", key, "err", err)
		g.metrics.CacheError("encode")
		return
	}

	idx := indexKey(key)
	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		pipe.SAdd(ctx, idx, key)
		pipe.Expire(ctx, idx, ttl)
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("cache.set failed", "key", key, "err", err)
		g.metrics.CacheError("set")
	}
}

// InvalidatePrefix removes every key under prefix.
func (g *Gateway) InvalidatePrefix(ctx context.Context, prefix string) int {
	return g.Delete(ctx, prefix+Delimiter+"*")
}

// Delete removes all keys matching a glob pattern and returns how many were removed.
// "prefix:*" patterns are served from the prefix index, anything else is scanned.
func (g *Gateway) Delete(ctx context.Context, pattern string) int {
	if !g.Enabled() {
		return 0
	}

	var (
		n   int
		err error
	)
	if prefix, ok := indexedPrefix(pattern); ok {
		n, err = g.deleteIndexed(ctx, prefix)
	} else {
		n, err = g.deleteMatching(ctx, pattern)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("cache.delete failed", "pattern", pattern, "err", err)
		g.metrics.CacheError("delete")
	}

	g.metrics.CacheInvalidated(n)
	return n
}

func (g *Gateway) deleteIndexed(ctx context.Context, prefix string) (int, error) {
	idx := indexKey(prefix)

	members, err := g.client.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, err
	}

	want := prefix + Delimiter
	keys := make([]string, 0, len(members))
	for _, m := range members {
		if strings.HasPrefix(m, want) {
			keys = append(keys, m)
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := g.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}

	stale := make([]any, len(keys))
	for i, k := range keys {
		stale[i] = k
	}
	if err := g.client.SRem(ctx, idx, stale...).Err(); err != nil {
		return int(removed), err
	}

	return int(removed), nil
}

func (g *Gateway) deleteMatching(ctx context.Context, pattern string) (int, error) {
	total := 0
	batch := make([]string, 0, delBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := g.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		total += int(n)
		batch = batch[:0]
		return nil
	}

	iter := g.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == delBatch {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return total, err
	}

	return total, flush()
}

// PruneIndexes drops index members whose key has already expired and returns
// the number of members removed.
func (g *Gateway) PruneIndexes(ctx context.Context) (int, error) {
	if !g.Enabled() {
		return 0, nil
	}

	pruned := 0
	iter := g.client.Scan(ctx, 0, "*"+Delimiter+indexSuffix, scanCount).Iterator()
	for iter.Next(ctx) {
		idx := iter.Val()

		members, err := g.client.SMembers(ctx, idx).Result()
		if err != nil {
			return pruned, err
		}

		gone := make([]any, 0)
		for _, m := range members {
			exists, err := g.client.Exists(ctx, m).Result()
			if err != nil {
				return pruned, err
			}
			if exists == 0 {
				gone = append(gone, m)
			}
		}

		if len(gone) > 0 {
			if err := g.client.SRem(ctx, idx, gone...).Err(); err != nil {
				return pruned, err
			}
			pruned += len(gone)
		}
	}

	return pruned, iter.Err()
}

func indexKey(key string) string {
	first, _, _ := strings.Cut(key, Delimiter)
	return first + Delimiter + indexSuffix
}

func indexedPrefix(pattern string) (string, bool) {
	prefix, ok := strings.CutSuffix(pattern, Delimiter+"*")
	if !ok || prefix == "" || strings.ContainsAny(prefix, `*?[]\`) {
		return "", false
	}
	return prefix, true
}
