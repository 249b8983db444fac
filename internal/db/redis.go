package db

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
	"github.com/manpreetbhatti/codesync/internal/logging"
)

type Redis struct {
	rdb *redis.Client
	key string
}

// RedisKey is where the counter for counterID lives.
func RedisKey(counterID string) string {
	return "codesync:rooms:" + counterID
}

func NewRedis(ctx context.Context, addr, counterID string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, cserrors.StoreUnavailable("redis", err)
	}

	logging.NewLogger("db").WithField("addr", addr).Info("Connected to Redis")
	return &Redis{rdb: rdb, key: RedisKey(counterID)}, nil
}

func (r *Redis) Increment(ctx context.Context) error {
	return r.rdb.Incr(ctx, r.key).Err()
}

func (r *Redis) Count(ctx context.Context) (int64, error) {
	count, err := r.rdb.Get(ctx, r.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return count, err
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
