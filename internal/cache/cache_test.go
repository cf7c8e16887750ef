package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.Disabled)
	return NewWithClient(client, time.Minute, &logger), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var miss []entry
	assert.False(t, c.GetJSON(ctx, KeyLocations, &miss))

	c.SetJSON(ctx, KeyLocations, []entry{{ID: "1", Name: "Bãi Quận 1"}})

	var hit []entry
	require.True(t, c.GetJSON(ctx, KeyLocations, &hit))
	require.Len(t, hit, 1)
	assert.Equal(t, "Bãi Quận 1", hit[0].Name)

	c.Invalidate(ctx, KeyLocations)
	var gone []entry
	assert.False(t, c.GetJSON(ctx, KeyLocations, &gone))
}

func TestCacheTTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, KeyLocations, []string{"a"})
	mr.FastForward(2 * time.Minute)

	var out []string
	assert.False(t, c.GetJSON(ctx, KeyLocations, &out))
}

func TestNilCacheIsNoop(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.Disabled)
	var c *Cache = New("", "", time.Minute, &logger)
	require.Nil(t, c)

	ctx := context.Background()
	var out []string
	assert.False(t, c.GetJSON(ctx, KeyLocations, &out))
	c.SetJSON(ctx, KeyLocations, []string{"a"})
	c.Invalidate(ctx, KeyLocations)
	assert.NoError(t, c.Close())
}
