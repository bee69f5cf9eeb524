// Package sqlite persists the rule registry to a single SQLite file as a
// canonical JSON snapshot. The registry stays the source of truth in memory;
// Save writes the full snapshot after each successful mutation.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"soacore/internal/core"
)

const rulesBucket = "soa_rules"

// Store wraps a core.Registry with SQLite-backed snapshots.
type Store struct {
	*core.Registry
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open constructs a SQLite-backed store at path, creating the schema and
// hydrating the registry from any existing snapshot.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "soacore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Registry: core.NewRegistry(), db: db, path: path}
	if err := s.hydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) hydrate() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, rulesBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	doc, err := core.DecodeDocument(payload)
	if err != nil {
		return err
	}
	return s.Registry.LoadDocument(doc)
}

// LoadDocument loads the document into the registry and snapshots on success.
func (s *Store) LoadDocument(doc core.Document) error {
	if err := s.Registry.LoadDocument(doc); err != nil {
		return err
	}
	return s.Save()
}

// Save writes the registry's current canonical document to SQLite.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.Registry.ExportDocument())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
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

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
