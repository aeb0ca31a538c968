package oidckit

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Discoverer fetches provider metadata from an authority. Swapped out in tests.
type Discoverer func(ctx context.Context, authority string) (*ProviderMetadata, error)

// MetadataCache memoizes discovered provider metadata keyed by authority URL.
// Discovered metadata is trusted for the process lifetime; there is no expiry.
// Construct one per process and inject it wherever connections are verified.
type MetadataCache struct {
	entries  *gocache.Cache
	discover Discoverer
	log      logrus.FieldLogger
}

// MetadataCacheOpt configures a MetadataCache.
type MetadataCacheOpt func(*MetadataCache)

// WithDiscoverer overrides the discovery function.
func WithDiscoverer(d Discoverer) MetadataCacheOpt {
	return func(m *MetadataCache) { m.discover = d }
}

// WithMetadataLogger sets the diagnostic logger.
func WithMetadataLogger(log logrus.FieldLogger) MetadataCacheOpt {
	return func(m *MetadataCache) { m.log = log }
}

// NewMetadataCache creates an empty metadata cache.
func NewMetadataCache(opts ...MetadataCacheOpt) *MetadataCache {
	m := &MetadataCache{
		entries:  gocache.New(gocache.NoExpiration, 0),
		discover: Discover,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns provider metadata for a connection. Inline metadata on the
// connection is returned directly and never cached; otherwise the authority is
// looked up, with a discovery round-trip on first use. Concurrent misses for
// the same authority may each run discovery; last writer wins, which is
// harmless since both fetched the same document.
func (m *MetadataCache) Get(ctx context.Context, conn *Connection) (*ProviderMetadata, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: nil connection", ErrConfig)
	}
	if conn.Metadata != nil {
		return conn.Metadata, nil
	}
	if conn.Authority == "" {
		return nil, fmt.Errorf("%w: connection %q has neither inline metadata nor an authority", ErrConfig, conn.ID)
	}
	if cached, ok := m.entries.Get(conn.Authority); ok {
		return cached.(*ProviderMetadata), nil
	}
	meta, err := m.discover(ctx, conn.Authority)
	if err != nil {
		return nil, err
	}
	m.entries.Set(conn.Authority, meta, gocache.NoExpiration)
	m.log.WithField("authority", conn.Authority).Debug("cached discovered provider metadata")
	return meta, nil
}
