package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Allow(ctx, "1.2.3.4"))
	require.NoError(t, l.Allow(ctx, "1.2.3.4"))
	assert.ErrorIs(t, l.Allow(ctx, "1.2.3.4"), ErrLimitExceeded)

	// other keys have their own window
	assert.NoError(t, l.Allow(ctx, "5.6.7.8"))

	now = now.Add(time.Minute)
	assert.NoError(t, l.Allow(ctx, "1.2.3.4"))
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	l := NewMemoryLimiter(1, time.Second)
	l.now = func() time.Time { return now }

	for i := 0; i < 1100; i++ {
		require.NoError(t, l.Allow(ctx, uuid.NewString()))
	}
	now = now.Add(2 * time.Second)
	require.NoError(t, l.Allow(ctx, "fresh"))
	assert.Len(t, l.keys, 1)
}

// TestRedisLimiter runs when LINKSEAL_TEST_REDIS_ADDR is set.
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("LINKSEAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LINKSEAL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLimiter(client, "linkseal-test:", 2, time.Minute)
	key := uuid.NewString()
	require.NoError(t, l.Allow(ctx, key))
	require.NoError(t, l.Allow(ctx, key))
	assert.ErrorIs(t, l.Allow(ctx, key), ErrLimitExceeded)
}
