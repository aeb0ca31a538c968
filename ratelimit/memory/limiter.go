// Package memorylimiter is a single-node sliding-window rate limiter. The
// auth subsystem uses it to cap forced JWKS refreshes per key-set URL.
package memorylimiter

import (
	"errors"
	"sync"
	"time"
)

// Limit defines the max count per window for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// DefaultLimit applies to buckets with no configured limit. It matches the
// JWKS refresh budget: five fetches per minute.
var DefaultLimit = Limit{Limit: 5, Window: time.Minute}

// Limiter tracks request timestamps per (bucket, key) pair and prunes
// expired entries on each call, dropping empty pairs to bound memory.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	windows map[string][]int64
}

// New constructs a limiter with per-bucket limits. Unknown buckets fall back
// to the "default" entry, then to DefaultLimit.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits:  limits,
		windows: make(map[string][]int64),
	}
}

func (l *Limiter) limitFor(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return DefaultLimit
}

// AllowNamed reports whether another request in the named bucket is within
// budget for the given key, recording it when allowed. Denied attempts are
// not recorded.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, errors.New("memorylimiter: bucket and key required")
	}

	lim := l.limitFor(bucket)
	nowMs := time.Now().UnixMilli()
	windowStart := nowMs - lim.Window.Milliseconds()
	pairKey := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.windows[pairKey]
	pruned := 0
	for pruned < len(ts) && ts[pruned] < windowStart {
		pruned++
	}
	ts = ts[pruned:]
	if len(ts) == 0 {
		delete(l.windows, pairKey)
	}

	if len(ts) >= lim.Limit {
		if len(ts) > 0 {
			l.windows[pairKey] = ts
		}
		return false, nil
	}

	l.windows[pairKey] = append(ts, nowMs)
	return true, nil
}

// Reset clears all recorded windows.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.windows = make(map[string][]int64)
	l.mu.Unlock()
}
