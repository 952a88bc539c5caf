package conversation

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStores_AppendTruncate(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			turns, err := store.Turns(ctx, "unknown")
			require.NoError(t, err)
			assert.Empty(t, turns)

			require.NoError(t, store.Append(ctx, "s", Turn{"user", "1"}, Turn{"assistant", "2"}, Turn{"user", "3"}))
			require.NoError(t, store.Truncate(ctx, "s", 2))

			turns, err = store.Turns(ctx, "s")
			require.NoError(t, err)
			assert.Equal(t, []Turn{{"assistant", "2"}, {"user", "3"}}, turns)

			require.NoError(t, store.Truncate(ctx, "s", 0))
			turns, err = store.Turns(ctx, "s")
			require.NoError(t, err)
			assert.Empty(t, turns)
		})
	}
}

func TestMemoryStore_TurnsReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "s", Turn{"user", "hi"}))

	turns, _ := store.Turns(ctx, "s")
	turns[0].Text = "mutated"

	again, _ := store.Turns(ctx, "s")
	assert.Equal(t, "hi", again[0].Text)
}

func TestRedisStore_SetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "919800000001", Turn{"user", "hi"}))
	assert.Equal(t, time.Hour, mr.TTL("session:919800000001"))

	mr.FastForward(2 * time.Hour)
	turns, err := store.Turns(ctx, "919800000001")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
