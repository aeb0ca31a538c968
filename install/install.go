// Package install answers the "is this a fresh installation" probe, memoized
// for the process lifetime.
package install

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists installation state.
type Store interface {
	Installed(ctx context.Context) (bool, error)
	MarkInstalled(ctx context.Context) error
}

// Checker memoizes the installation probe. The first FirstRun call queries
// the store; the answer is then cached until MarkInstalled flips it, with no
// further storage queries either way.
type Checker struct {
	mu       sync.RWMutex
	store    Store
	firstRun *bool
}

// NewChecker creates a checker over the given store.
func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// FirstRun reports whether no installation has completed yet.
func (c *Checker) FirstRun(ctx context.Context) (bool, error) {
	c.mu.RLock()
	if c.firstRun != nil {
		v := *c.firstRun
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firstRun != nil {
		return *c.firstRun, nil
	}
	installed, err := c.store.Installed(ctx)
	if err != nil {
		return false, err
	}
	v := !installed
	c.firstRun = &v
	return v, nil
}

// MarkInstalled records that installation completed and updates the memo.
func (c *Checker) MarkInstalled(ctx context.Context) error {
	if err := c.store.MarkInstalled(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	v := false
	c.firstRun = &v
	c.mu.Unlock()
	return nil
}

// PGStore is the Postgres-backed installation state.
type PGStore struct {
	pg     *pgxpool.Pool
	schema string
}

// NewPGStore creates a store. schema defaults to "app".
func NewPGStore(pg *pgxpool.Pool, schema string) *PGStore {
	if schema == "" {
		schema = "app"
	}
	return &PGStore{pg: pg, schema: schema}
}

func (s *PGStore) table() string { return s.schema + ".install_state" }

// Installed reports whether an install record exists.
func (s *PGStore) Installed(ctx context.Context) (bool, error) {
	var installed bool
	err := s.pg.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+s.table()+`)`).Scan(&installed)
	return installed, err
}

// MarkInstalled writes the install record.
func (s *PGStore) MarkInstalled(ctx context.Context) error {
	_, err := s.pg.Exec(ctx, `INSERT INTO `+s.table()+` (installed_at) VALUES (now())`)
	return err
}
