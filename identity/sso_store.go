package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	oidckit "github.com/open-rails/tenantauth/oidc"
)

// SSOConnection is the stored form of a per-organization identity-provider
// connection. Metadata, when present, is an inline discovery document that
// short-circuits network discovery.
type SSOConnection struct {
	bun.BaseModel `bun:"table:app.sso_connections,alias:sc"`

	ID           string          `bun:"id,pk"`
	Authority    string          `bun:"authority,notnull"`
	ClientID     string          `bun:"client_id,notnull"`
	OrgID        *uuid.UUID      `bun:"org_id,type:uuid,nullzero"`
	EmailDomain  string          `bun:"email_domain,nullzero"`
	ProviderType string          `bun:"provider_type,nullzero"`
	Metadata     json.RawMessage `bun:"metadata,type:jsonb,nullzero"`
}

// ConnStore implements sso.Store over the sso_connections table.
type ConnStore struct {
	db *bun.DB
}

// NewConnStore creates an SSO connection store.
func NewConnStore(db *bun.DB) *ConnStore {
	return &ConnStore{db: db}
}

// FindByID returns the connection with the given id, or nil when absent.
func (s *ConnStore) FindByID(ctx context.Context, id string) (*oidckit.Connection, error) {
	row := new(SSOConnection)
	err := s.db.NewSelect().
		Model(row).
		Where("sc.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.connection()
}

func (r *SSOConnection) connection() (*oidckit.Connection, error) {
	conn := &oidckit.Connection{
		ID:           r.ID,
		Authority:    r.Authority,
		ClientID:     r.ClientID,
		OrgID:        r.OrgID,
		EmailDomain:  r.EmailDomain,
		ProviderType: r.ProviderType,
	}
	if len(r.Metadata) > 0 {
		meta := new(oidckit.ProviderMetadata)
		if err := json.Unmarshal(r.Metadata, meta); err != nil {
			return nil, fmt.Errorf("identity: connection %s has malformed metadata: %w", r.ID, err)
		}
		conn.Metadata = meta
	}
	return conn, nil
}
