package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Ledger = (*RedisLedger)(nil)

// redisLedger runs against an in-process Redis that is torn down with t.
func redisLedger(t *testing.T) (*RedisLedger, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLedger(client, ""), client
}

func TestOpenRedisLedger(t *testing.T) {
	srv := miniredis.RunT(t)
	l, err := OpenRedisLedger(context.Background(), "redis://"+srv.Addr())
	require.NoError(t, err)
	require.NoError(t, l.Close())
}

func TestOpenRedisLedger_BadURL(t *testing.T) {
	_, err := OpenRedisLedger(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestRedisLedger_Points(t *testing.T) {
	ctx := context.Background()
	l, _ := redisLedger(t)

	p, err := l.Points(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, p)

	require.NoError(t, l.AddPoints(ctx, "u1", 5))
	require.NoError(t, l.AddPoints(ctx, "u1", 5))
	p, err = l.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, p)

	assert.ErrorIs(t, l.AddPoints(ctx, "u1", -1), ErrInvalidAmount)
}

func TestRedisLedger_Top(t *testing.T) {
	ctx := context.Background()
	l, _ := redisLedger(t)

	top, err := l.Top(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, top)

	require.NoError(t, l.AddPoints(ctx, "b", 10))
	require.NoError(t, l.AddPoints(ctx, "a", 10))
	require.NoError(t, l.AddPoints(ctx, "c", 30))

	top, err = l.Top(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []Standing{{"c", 30}, {"a", 10}, {"b", 10}}, top)

	top, err = l.Top(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []Standing{{"c", 30}}, top)

	top, err = l.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestRedisLedger_TopTiesAtCutoffMatchMemory(t *testing.T) {
	ctx := context.Background()
	l, _ := redisLedger(t)
	mem := NewMemory(9)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, l.AddPoints(ctx, id, 5))
		require.NoError(t, mem.AddPoints(ctx, id, 5))
	}
	require.NoError(t, l.AddPoints(ctx, "d", 20))
	require.NoError(t, mem.AddPoints(ctx, "d", 20))

	for _, n := range []int{1, 2, 3, 4} {
		got, err := l.Top(ctx, n)
		require.NoError(t, err)
		want, _ := mem.Top(ctx, n)
		assert.Equal(t, want, got, "n=%d", n)
	}

	got, _ := l.Top(ctx, 2)
	assert.Equal(t, []Standing{{"d", 20}, {"a", 5}}, got)
}

func TestRedisLedger_TopSkipsEmptyMember(t *testing.T) {
	ctx := context.Background()
	l, client := redisLedger(t)
	require.NoError(t, client.ZAdd(ctx, defaultPointsKey, redis.Z{Score: 50, Member: ""}).Err())
	require.NoError(t, l.AddPoints(ctx, "a", 5))

	top, err := l.Top(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []Standing{{"a", 5}}, top)
}

func TestRank(t *testing.T) {
	in := []Standing{{"b", 5}, {"c", 9}, {"a", 5}}
	assert.Equal(t, []Standing{{"c", 9}, {"a", 5}}, Rank(in, 2))
	assert.Empty(t, Rank(nil, 3))
}
