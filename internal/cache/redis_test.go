package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dvs/internal/config"
)

type category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetAndGet(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	expected := []category{{ID: 1, Name: "Business"}, {ID: 2, Name: "Travel"}}
	require.NoError(t, c.Set(ctx, "categories:active", expected, time.Minute))

	var actual []category
	found, err := c.Get(ctx, "categories:active", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	c, _ := setupTestCache(t)

	var out []category
	found, err := c.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", category{ID: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out category
	found, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", category{ID: 1}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestGetCorruptedValue(t *testing.T) {
	c, mr := setupTestCache(t)
	require.NoError(t, mr.Set("k", "{not json"))

	var out category
	_, err := c.Get(context.Background(), "k", &out)
	assert.Error(t, err)
}

func TestInitServer_Unreachable(t *testing.T) {
	_, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var n Noop
	ctx := context.Background()
	require.NoError(t, n.Set(ctx, "k", 1, time.Minute))
	found, err := n.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, n.Invalidate(ctx, "k"))
}
