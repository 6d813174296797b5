package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates the client backing the teaser cache and
// verifies connectivity with a ping. The cache sits on the hottest
// listing path, so timeouts stay tight: a slow Redis turns into a
// cache miss instead of stalling the request.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
