package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Connect(context.Background()))
	return client, mr
}

func TestRedisClient_SetNXAndExists(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	exists, err := client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	stored, err := client.SetNX(ctx, "k", "v", time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = client.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)

	exists, err = client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, client.HealthCheck(ctx))
}

func TestReplayGuard(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()
	guard := NewReplayGuard(client, time.Minute)

	seen, err := guard.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, guard.Remember(ctx, "abc"))
	assert.True(t, mr.Exists(DefaultReplayPrefix+"abc"))

	seen, err = guard.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Minute)

	seen, err = guard.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestReplayGuard_RedisDown(t *testing.T) {
	client, mr := newTestRedis(t)
	guard := NewReplayGuard(client, 0)
	mr.Close()

	_, err := guard.Seen(context.Background(), "abc")
	assert.Error(t, err)
	assert.Error(t, guard.Remember(context.Background(), "abc"))
}
