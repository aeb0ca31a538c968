// Package identity provides the persistence-backed lookups authorization
// derivation depends on: application users (pgx), organizations with their
// membership lists, and per-organization SSO connections (bun).
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// User is the application-level user record.
type User struct {
	ID       uuid.UUID
	Email    string
	Name     string
	Admin    bool
	Verified bool
}

// Store provides user lookups/mutations against the application schema.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

// NewStore creates a user store. schema defaults to "app".
func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "app"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) usersTable() string { return s.schema + ".users" }

// FindByEmail returns the user with the given email, or nil when none exists.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	if s.pg == nil || strings.TrimSpace(email) == "" {
		return nil, nil
	}
	var u User
	err := s.pg.QueryRow(ctx,
		`SELECT id, email, COALESCE(name, ''), is_admin, email_verified FROM `+s.usersTable()+` WHERE email=$1 LIMIT 1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Admin, &u.Verified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MarkVerified records that the user's email address has been verified.
func (s *Store) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pg.Exec(ctx,
		`UPDATE `+s.usersTable()+` SET email_verified=true WHERE id=$1`, userID)
	return err
}

// NewBunDB wraps a pgx pool for the bun-backed stores in this package.
func NewBunDB(pg *pgxpool.Pool) *bun.DB {
	sqldb := stdlib.OpenDBFromPool(pg)
	return bun.NewDB(sqldb, pgdialect.New())
}
