package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"eventsImporter/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewWithClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client, time.Hour), mr
}

func TestImageCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	images := c.Images("relay:")

	_, _, ok := images.GetImage(ctx, "https://scontent.xx.fbcdn.net/a.jpg")
	assert.False(t, ok)

	images.SetImage(ctx, "https://scontent.xx.fbcdn.net/a.jpg", "https://file.io/a", "fileio")

	url, service, ok := images.GetImage(ctx, "https://scontent.xx.fbcdn.net/a.jpg")
	require.True(t, ok)
	assert.Equal(t, "https://file.io/a", url)
	assert.Equal(t, "fileio", service)

	assert.True(t, mr.Exists("relay:https://scontent.xx.fbcdn.net/a.jpg"))
	assert.Equal(t, time.Hour, mr.TTL("relay:https://scontent.xx.fbcdn.net/a.jpg"))
}

func TestImageCache_PrefixesAreIsolated(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Images("relay:").SetImage(ctx, "orig", "https://file.io/x", "fileio")

	_, _, ok := c.Images("imagehost:").GetImage(ctx, "orig")
	assert.False(t, ok)
}

func TestImageCache_Expired(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	images := c.Images("relay:")

	images.SetImage(ctx, "orig", "https://file.io/x", "fileio")
	mr.FastForward(2 * time.Hour)

	_, _, ok := images.GetImage(ctx, "orig")
	assert.False(t, ok)
}

func TestImageCache_BrokenEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("relay:orig", "not json"))

	_, _, ok := c.Images("relay:").GetImage(context.Background(), "orig")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := New(context.Background(), log, config.RedisConfig{Addr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(context.Background()))

	addr := mr.Addr()
	mr.Close()
	_, err = New(context.Background(), log, config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
