package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/projects-backend/internal/metrics"
)

type snapshot struct {
	Success bool     `json:"success"`
	Names   []string `json:"names"`
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})

	// Test connection
	require.NoError(t, client.Ping(context.Background()).Err())

	return client, mr
}

func TestGateway_SetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	gw := New(client, metrics.New())
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		var got snapshot
		assert.False(t, gw.Get(ctx, "projects:page:1", &got))
	})

	t.Run("hit after set", func(t *testing.T) {
		gw.Set(ctx, "projects:page:1", snapshot{Success: true, Names: []string{"a", "b"}}, time.Minute)

		var got snapshot
		require.True(t, gw.Get(ctx, "projects:page:1", &got))
		assert.Equal(t, snapshot{Success: true, Names: []string{"a", "b"}}, got)
		assert.True(t, mr.Exists("projects:__index"))
		ok, err := mr.SIsMember("projects:__index", "projects:page:1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		gw.Set(ctx, "projects:page:2", snapshot{Success: true}, 60*time.Second)
		mr.FastForward(61 * time.Second)

		var got snapshot
		assert.False(t, gw.Get(ctx, "projects:page:2", &got))
	})

	t.Run("undecodable value is a miss and is dropped", func(t *testing.T) {
		require.NoError(t, mr.Set("projects:broken", "{not json"))

		var got snapshot
		assert.False(t, gw.Get(ctx, "projects:broken", &got))
		assert.False(t, mr.Exists("projects:broken"))
	})
}

func TestGateway_InvalidatePrefix(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	gw := New(client, nil)
	ctx := context.Background()

	gw.Set(ctx, GenerateKey("projects", map[string]any{"page": 1, "limit": 10}), snapshot{}, time.Minute)
	gw.Set(ctx, GenerateKey("projects", map[string]any{"page": 2, "limit": 10}), snapshot{}, time.Minute)
	gw.Set(ctx, GenerateKey("logs", map[string]any{"page": 1}), snapshot{}, time.Minute)

	removed := gw.InvalidatePrefix(ctx, "projects")
	assert.Equal(t, 2, removed)

	assert.False(t, mr.Exists("projects:limit:10:page:1"))
	assert.False(t, mr.Exists("projects:limit:10:page:2"))
	assert.True(t, mr.Exists("logs:page:1"))

	t.Run("nothing left to remove", func(t *testing.T) {
		assert.Equal(t, 0, gw.InvalidatePrefix(ctx, "projects"))
	})

	t.Run("nested prefix only touches its own keys", func(t *testing.T) {
		gw.Set(ctx, "projects:list:a", snapshot{}, time.Minute)
		gw.Set(ctx, "projects:stats:a", snapshot{}, time.Minute)

		assert.Equal(t, 1, gw.Delete(ctx, "projects:list:*"))
		assert.False(t, mr.Exists("projects:list:a"))
		assert.True(t, mr.Exists("projects:stats:a"))
	})
}

func TestGateway_DeleteByScan(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	gw := New(client, nil)
	ctx := context.Background()

	gw.Set(ctx, "projects:limit:10:page:1", snapshot{}, time.Minute)
	gw.Set(ctx, "projects:limit:20:page:1", snapshot{}, time.Minute)

	removed := gw.Delete(ctx, "projects:limit:10*")
	assert.Equal(t, 1, removed)
	assert.False(t, mr.Exists("projects:limit:10:page:1"))
	assert.True(t, mr.Exists("projects:limit:20:page:1"))

	assert.Equal(t, 0, gw.Delete(ctx, "nothing:here*"))
}

func TestGateway_PruneIndexes(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	gw := New(client, nil)
	ctx := context.Background()

	gw.Set(ctx, "projects:short", snapshot{}, 10*time.Second)
	gw.Set(ctx, "projects:long", snapshot{}, 100*time.Second)
	mr.FastForward(20 * time.Second)

	pruned, err := gw.PruneIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	members, err := mr.Members("projects:__index")
	require.NoError(t, err)
	assert.Equal(t, []string{"projects:long"}, members)
}

func TestGateway_ErrorsAreSwallowed(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	gw := New(client, metrics.New())
	ctx := context.Background()
	mr.Close()

	assert.NotPanics(t, func() {
		var got snapshot
		assert.False(t, gw.Get(ctx, "projects:x", &got))
		gw.Set(ctx, "projects:x", snapshot{}, time.Minute)
		assert.Equal(t, 0, gw.InvalidatePrefix(ctx, "projects"))
		assert.Equal(t, 0, gw.Delete(ctx, "projects:x*"))
	})
	assert.Error(t, gw.Ping(ctx))
}

func TestGateway_Disabled(t *testing.T) {
	gw := New(nil, nil)
	ctx := context.Background()

	assert.False(t, gw.Enabled())
	gw.Set(ctx, "projects:x", snapshot{}, time.Minute)

	var got snapshot
	assert.False(t, gw.Get(ctx, "projects:x", &got))
	assert.Equal(t, 0, gw.InvalidatePrefix(ctx, "projects"))
	assert.Error(t, gw.Ping(ctx))
	assert.NoError(t, gw.Close())

	n, err := gw.PruneIndexes(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestJanitor(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	gw := New(client, nil)

	_, err := NewJanitor(gw, "not a schedule")
	assert.Error(t, err)

	j, err := NewJanitor(gw, "0 */10 * * * *")
	require.NoError(t, err)

	gw.Set(context.Background(), "projects:a", snapshot{}, time.Second)
	gw.Set(context.Background(), "projects:b", snapshot{}, time.Hour)
	mr.FastForward(2 * time.Second)

	j.RunOnce()

	members, err := mr.Members("projects:__index")
	require.NoError(t, err)
	assert.Equal(t, []string{"projects:b"}, members)

	j.Start()
	<-j.Stop().Done()
}
