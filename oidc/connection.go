package oidckit

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Connection describes one identity-provider connection: either the hosted
// default, a per-organization connection from storage, or the self-hosted
// static configuration. It is immutable once resolved for a request.
type Connection struct {
	ID           string            `json:"id"`
	Authority    string            `json:"authority"`
	ClientID     string            `json:"client_id"`
	OrgID        *uuid.UUID        `json:"org_id,omitempty"`
	EmailDomain  string            `json:"email_domain,omitempty"`
	ProviderType string            `json:"provider_type,omitempty"`
	Metadata     *ProviderMetadata `json:"metadata,omitempty"`
}

// CacheKey returns a stable key derived from the full connection
// configuration. Two connections serializing to the same key share one
// verifier for the process lifetime.
func (c *Connection) CacheKey() string {
	// Struct field order makes encoding/json output deterministic here.
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return base58.Encode(sum[:])
}
