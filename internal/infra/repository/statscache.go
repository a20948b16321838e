package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache keeps aggregate snapshots in redis as JSON with a TTL, next to
// an INCR-backed generation counter per target.
type StatsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	genTTL time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	// a generation must outlive every snapshot filed under it
	genTTL := 24 * time.Hour
	if genTTL < 10*ttl {
		genTTL = 10 * ttl
	}
	return &StatsCache{rdb: rdb, ttl: ttl, genTTL: genTTL}
}

func (c *StatsCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *StatsCache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

func (c *StatsCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.rdb.Get(ctx, key+":gen").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *StatsCache) Bump(ctx context.Context, key string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key+":gen")
	pipe.Expire(ctx, key+":gen", c.genTTL)
	_, err := pipe.Exec(ctx)
	return err
}
