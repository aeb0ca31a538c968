// Package redislimiter is a Redis-backed sliding-window rate limiter for
// multi-node deployments, interchangeable with the in-memory limiter behind
// the same AllowNamed interface.
package redislimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit defines the max count per window for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter counts requests in Redis sorted sets, one per (key, bucket) pair,
// scored by millisecond timestamps.
type Limiter struct {
	rdb    *redis.Client
	keyNS  string
	limits map[string]Limit
}

// New constructs a limiter. Unknown buckets fall back to the "default"
// entry, then to 5 per minute.
func New(rdb *redis.Client, limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{rdb: rdb, keyNS: "auth:rl:", limits: limits}
}

func (l *Limiter) limitFor(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 5, Window: time.Minute}
}

// AllowNamed reports whether another request in the named bucket is within
// budget for the given key. The attempt is recorded first and removed again
// when over budget, so a denied attempt does not consume quota.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, errors.New("redislimiter: bucket and key required")
	}
	ctx := context.Background()
	lim := l.limitFor(bucket)
	now := time.Now().UnixMilli()
	windowStart := now - lim.Window.Milliseconds()
	redisKey := l.keyNS + key + ":" + bucket

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now), Member: now})
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		l.rdb.ZRem(ctx, redisKey, now)
		return false, nil
	}
	return true, nil
}
