//go:build integration

package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"ledger-service/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestIntegration_RateLimitStore_RealRedis(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := NewClient(ctx, config.RedisConfig{Host: host, Port: port.Int()}, zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRateLimitStore(client)
	fixed := time.Unix(1_800_000_000, 0)
	store.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "ip:10.0.0.1:auth_login", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
	}

	res, err := store.Allow(ctx, "ip:10.0.0.1:auth_login", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	keys, err := client.Keys(ctx, "ledger:ratelimit:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	ttl, err := client.TTL(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "counter must expire")

	assert.NoError(t, NewHealthCheck(client).Ping(ctx))
}
