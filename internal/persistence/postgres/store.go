// Package postgres provides a Postgres-backed store with the same snapshot
// semantics as the sqlite package: the registry lives in memory and the
// canonical document is upserted as JSONB after each successful mutation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"soacore/internal/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/soacore?sslmode=disable"
	rulesBucket   = "soa_rules"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store wraps a core.Registry with Postgres-backed snapshots.
type Store struct {
	*core.Registry
	db *sql.DB
	mu sync.Mutex
}

// Open connects using the provided DSN (falls back to defaultDSN), ensures
// the snapshot table exists, and hydrates the registry from any stored
// snapshot.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	s := &Store{Registry: core.NewRegistry(), db: db}
	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, rulesBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	doc, err := core.DecodeDocument(payload)
	if err != nil {
		return err
	}
	return s.Registry.LoadDocument(doc)
}

// LoadDocument loads the document into the registry and snapshots on success.
func (s *Store) LoadDocument(ctx context.Context, doc core.Document) error {
	if err := s.Registry.LoadDocument(doc); err != nil {
		return err
	}
	return s.Save(ctx)
}

// Save writes the registry's current canonical document to Postgres.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.Registry.ExportDocument())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
		rulesBucket, payload,
	); err != nil {
		return fmt.Errorf("upsert %s: %w", rulesBucket, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
