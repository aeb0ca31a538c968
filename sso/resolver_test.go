package sso

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/tenantauth/config"
	oidckit "github.com/open-rails/tenantauth/oidc"
)

type fakeConnStore struct {
	conns map[string]*oidckit.Connection
	err   error
	calls int
}

func (f *fakeConnStore) FindByID(_ context.Context, id string) (*oidckit.Connection, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.conns[id], nil
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestResolveSelfHostedWithoutStaticConnection(t *testing.T) {
	cfg := &config.Config{Mode: config.ModeSelfHosted}
	r := NewResolver(cfg, nil, quietLogger())

	conn, err := r.Resolve(context.Background(), "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if conn != nil {
		t.Fatalf("expected no connection, got %+v", conn)
	}
}

func TestResolveSelfHostedStaticConnection(t *testing.T) {
	static := &oidckit.Connection{ID: "static", Authority: "https://idp.example.com", ClientID: "cid"}
	cfg := &config.Config{Mode: config.ModeSelfHosted, StaticConnection: static}
	r := NewResolver(cfg, nil, quietLogger())

	conn, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if conn != static {
		t.Fatalf("expected the static connection, got %+v", conn)
	}
}

func TestResolveHostedHeaderLookup(t *testing.T) {
	def := &oidckit.Connection{ID: "default", Authority: "https://cloud.example.com", ClientID: "cid"}
	tenant := &oidckit.Connection{ID: "tenant-1", Authority: "https://tenant.example.com", ClientID: "cid"}
	store := &fakeConnStore{conns: map[string]*oidckit.Connection{"tenant-1": tenant}}
	cfg := &config.Config{Mode: config.ModeHosted, HostedDefault: def}
	r := NewResolver(cfg, store, quietLogger())

	conn, err := r.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatal(err)
	}
	if conn != tenant {
		t.Fatalf("expected tenant connection, got %+v", conn)
	}
}

func TestResolveHostedUnknownConnectionFallsThrough(t *testing.T) {
	def := &oidckit.Connection{ID: "default", Authority: "https://cloud.example.com", ClientID: "cid"}
	store := &fakeConnStore{conns: map[string]*oidckit.Connection{}}
	cfg := &config.Config{Mode: config.ModeHosted, HostedDefault: def}
	r := NewResolver(cfg, store, quietLogger())

	conn, err := r.Resolve(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if conn != nil {
		t.Fatalf("unknown connection id must resolve to no SSO, got %+v", conn)
	}
	if store.calls != 1 {
		t.Fatalf("expected one store lookup, got %d", store.calls)
	}
}

func TestResolveHostedDefaultWithoutHeader(t *testing.T) {
	def := &oidckit.Connection{ID: "default", Authority: "https://cloud.example.com", ClientID: "cid"}
	store := &fakeConnStore{}
	cfg := &config.Config{Mode: config.ModeHosted, HostedDefault: def}
	r := NewResolver(cfg, store, quietLogger())

	conn, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if conn != def {
		t.Fatalf("expected hosted default, got %+v", conn)
	}
	if store.calls != 0 {
		t.Fatal("no store lookup expected without a header")
	}
}

func TestResolveStoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	store := &fakeConnStore{err: boom}
	cfg := &config.Config{Mode: config.ModeHosted}
	r := NewResolver(cfg, store, quietLogger())

	_, err := r.Resolve(context.Background(), "tenant-1")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
