package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/cargoquote/internal/dialogue"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	store := NewRedisStoreFromClient(client, WithPrefix("test:"))
	require.NoError(t, store.Ping(ctx))

	_, ok, err := store.Get(ctx, "telegram:1")
	require.NoError(t, err)
	assert.False(t, ok)

	result, err := pricing.Calculate(pricing.Request{
		TimeOfDay: tariff.TimeDay,
		DayType:   tariff.DayWeekday,
		Extras:    []tariff.Extra{tariff.ExtraWaiting},
	})
	require.NoError(t, err)

	s := dialogue.NewSession("telegram:1", time.Now().UTC().Truncate(time.Second))
	s.State = dialogue.AwaitingAction
	s.Extras = []tariff.Extra{tariff.ExtraWaiting}
	s.LastResult = &result
	require.NoError(t, store.Save(ctx, s))

	got, ok, err := store.Get(ctx, "telegram:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dialogue.AwaitingAction, got.State)
	assert.Equal(t, s.Extras, got.Extras)
	require.NotNil(t, got.LastResult)
	assert.Equal(t, result.Total, got.LastResult.Total)
	assert.Equal(t, result.Details, got.LastResult.Details)
	assert.Equal(t, tariff.PerHour, got.LastResult.ExtraLines[0].Kind)
	assert.NotNil(t, got.Answers)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Clear(ctx, "telegram:1"))
	_, ok, err = store.Get(ctx, "telegram:1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisStoreExpiresIdleSessions(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	store := NewRedisStoreFromClient(client, WithIdleTimeout(time.Minute))

	require.NoError(t, store.Save(ctx, dialogue.NewSession("web:x", time.Now())))
	assert.True(t, mr.Exists(defaultPrefix+"web:x"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "web:x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreRejectsCorruptValue(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisStoreFromClient(client)
	require.NoError(t, mr.Set(defaultPrefix+"bad", "{not json"))

	_, _, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
}
