package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultPointsKey = "greenclass:points"

// RedisLedger keeps balances in a sorted set, member = user id,
// score = balance.
type RedisLedger struct {
	client *redis.Client
	key    string
}

// OpenRedisLedger connects using a redis:// URL and pings the server.
func OpenRedisLedger(ctx context.Context, url string) (*RedisLedger, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisLedger(client, ""), nil
}

// NewRedisLedger wraps an existing client. An empty key uses the default.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	if key == "" {
		key = defaultPointsKey
	}
	return &RedisLedger{client: client, key: key}
}

func (l *RedisLedger) AddPoints(ctx context.Context, userID string, amount int) error {
	if err := CheckAmount(amount); err != nil {
		return err
	}
	if err := l.client.ZIncrBy(ctx, l.key, float64(amount), userID).Err(); err != nil {
		return fmt.Errorf("adding points: %w", err)
	}
	return nil
}

func (l *RedisLedger) Points(ctx context.Context, userID string) (int, error) {
	score, err := l.client.ZScore(ctx, l.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting points: %w", err)
	}
	return int(score), nil
}

// Top returns the n highest balances, ties broken by user id. Redis orders
// equal scores by member descending, so every member tied with the n-th
// score is fetched before ranking and trimming.
func (l *RedisLedger) Top(ctx context.Context, n int) ([]Standing, error) {
	var zs []redis.Z
	var err error
	if n > 0 {
		zs, err = l.cutoff(ctx, n)
	} else {
		zs, err = l.client.ZRevRangeWithScores(ctx, l.key, 0, -1).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard: %w", err)
	}
	out := make([]Standing, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok || id == "" {
			continue
		}
		out = append(out, Standing{UserID: id, Points: int(z.Score)})
	}
	return Rank(out, n), nil
}

// cutoff returns the top n members plus any others sharing the n-th score.
func (l *RedisLedger) cutoff(ctx context.Context, n int) ([]redis.Z, error) {
	last, err := l.client.ZRevRangeWithScores(ctx, l.key, int64(n-1), int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(last) == 0 {
		return l.client.ZRevRangeWithScores(ctx, l.key, 0, -1).Result()
	}
	return l.client.ZRevRangeByScoreWithScores(ctx, l.key, &redis.ZRangeBy{
		Min: strconv.FormatFloat(last[0].Score, 'f', -1, 64),
		Max: "+inf",
	}).Result()
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
