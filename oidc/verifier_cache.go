package oidckit

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	memorylimiter "github.com/open-rails/tenantauth/ratelimit/memory"
)

// VerifierCache maps a connection's canonical configuration to a constructed
// Verifier. One verifier exists per distinct configuration for the process
// lifetime; entries are never rebuilt or invalidated, even if the provider's
// metadata later changes upstream.
type VerifierCache struct {
	// baseCtx scopes background JWKS refreshing to the process, not to the
	// request that happened to trigger construction.
	baseCtx  context.Context
	metadata *MetadataCache
	entries  *gocache.Cache
	limiter  RateLimiter

	// populateMu serializes cache misses so one configuration never yields
	// two verifier instances.
	populateMu sync.Mutex
}

// VerifierCacheOpt configures a VerifierCache.
type VerifierCacheOpt func(*VerifierCache)

// WithVerifierRefreshLimiter sets the JWKS refresh limiter shared by all
// verifiers built from this cache.
func WithVerifierRefreshLimiter(rl RateLimiter) VerifierCacheOpt {
	return func(vc *VerifierCache) { vc.limiter = rl }
}

// NewVerifierCache creates an empty verifier cache backed by the given
// metadata cache. ctx bounds the lifetime of background key refreshing for
// every verifier built here. The default refresh limiter is in-memory at
// JWKSRefreshLimit fetches per minute per JWKS URL.
func NewVerifierCache(ctx context.Context, metadata *MetadataCache, opts ...VerifierCacheOpt) *VerifierCache {
	vc := &VerifierCache{
		baseCtx:  ctx,
		metadata: metadata,
		entries:  gocache.New(gocache.NoExpiration, 0),
		limiter: memorylimiter.New(map[string]memorylimiter.Limit{
			JWKSRefreshBucket: {Limit: JWKSRefreshLimit, Window: time.Minute},
		}),
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Get returns the verifier for a connection, constructing and memoizing it on
// first use. A cache hit is returned unconditionally. Construction resolves
// metadata via the metadata cache and fails with ErrConfig when the resolved
// metadata lacks a JWKS URI, issuer, or signing algorithms.
func (vc *VerifierCache) Get(ctx context.Context, conn *Connection) (*Verifier, error) {
	key := conn.CacheKey()
	if cached, ok := vc.entries.Get(key); ok {
		return cached.(*Verifier), nil
	}

	vc.populateMu.Lock()
	defer vc.populateMu.Unlock()
	if cached, ok := vc.entries.Get(key); ok {
		return cached.(*Verifier), nil
	}

	meta, err := vc.metadata.Get(ctx, conn)
	if err != nil {
		return nil, err
	}
	verifier, err := NewVerifier(vc.baseCtx, meta, conn.ClientID, WithRefreshLimiter(vc.limiter))
	if err != nil {
		return nil, err
	}
	vc.entries.Set(key, verifier, gocache.NoExpiration)
	return verifier, nil
}
