package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/factorpanel/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), EODHDRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, EODHDRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), ProfileRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []int{1, 2}, TTLShort))

	var result []int
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "fundamentals:AAA:2024-01-01:2024-03-31", FundamentalsKey("AAA", "2024-01-01", "2024-03-31"))
	assert.Equal(t, "sector:AAA", SectorKey("AAA"))

	a := PriceTableKey([]string{"AAA", "BBB"}, "2024-01-01", "2024-03-31")
	b := PriceTableKey([]string{"AAA", "BBB"}, "2024-01-01", "2024-03-31")
	c := PriceTableKey([]string{"AAA", "CCC"}, "2024-01-01", "2024-03-31")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, ":2024-01-01:2024-03-31")
}
