package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"kbox/infras/otel/mocks"
	"kbox/shared/cache"
)

func newTestCache(t *testing.T) cache.RedisCache {
	t.Helper()

	server := miniredis.RunT(t)
	client := goRedis.NewClient(&goRedis.Options{Addr: server.Addr()})

	return cache.NewRedisCache(client, mocks.NewOtel())
}

func TestRedisCache_SaveAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		RoomNumber string `json:"room_number"`
		TimeSlot   string `json:"time_slot"`
	}

	saved := payload{RoomNumber: "S101", TimeSlot: "12:00-14:00"}
	assert.NoError(t, c.Save(ctx, "booking:get:abc", saved, 60))

	var got payload
	assert.NoError(t, c.Get(ctx, "booking:get:abc", &got))
	assert.Equal(t, saved, got)
}

func TestRedisCache_GetString(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.NoError(t, c.Save(ctx, "plain", "hello", 60))

	var got string
	assert.NoError(t, c.Get(ctx, "plain", &got))
	assert.Equal(t, "hello", got)
}

func TestRedisCache_GetMiss(t *testing.T) {
	c := newTestCache(t)

	var got string
	err := c.Get(context.Background(), "missing", &got)
	assert.Error(t, err)
	assert.ErrorIs(t, err, cache.Nil)
}

func TestRedisCache_DeleteAndClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.NoError(t, c.Save(ctx, "room:gets:1", "a", 60))
	assert.NoError(t, c.Save(ctx, "room:gets:2", "b", 60))
	assert.NoError(t, c.Save(ctx, "room:get:solo", "c", 60))

	assert.NoError(t, c.Delete(ctx, "room:get:solo"))

	var got string
	assert.Error(t, c.Get(ctx, "room:get:solo", &got))

	assert.NoError(t, c.Clear(ctx, "room:gets:*"))
	assert.Error(t, c.Get(ctx, "room:gets:1", &got))
	assert.Error(t, c.Get(ctx, "room:gets:2", &got))
}
