package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"plantkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

var bucketName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Well-known buckets.
const (
	BucketCache  = "cache"
	BucketSecure = "secure"
)

// SQLite is a durable KV database holding one table per bucket.
type SQLite struct {
	db     *sql.DB
	path   string
	mu     sync.Mutex
	tables map[string]bool
}

// OpenSQLite opens (creating if needed) the database at path.
// An empty path or ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	timer := logging.StartTimer(logging.CategoryStore, "OpenSQLite")
	defer timer.Stop()

	if path == "" {
		path = ":memory:"
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
		if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logging.Store("SQLite store opened at %s", path)
	return &SQLite{db: db, path: path, tables: make(map[string]bool)}, nil
}

// Bucket returns the KV backed by the table for name, creating it on first use.
func (s *SQLite) Bucket(name string) (*Bucket, error) {
	if !bucketName.MatchString(name) {
		return nil, fmt.Errorf("invalid bucket name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := "kv_" + name
	if !s.tables[table] {
		ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`, table)
		if _, err := s.db.Exec(ddl); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
		}
		s.tables[table] = true
		logging.StoreDebug("Bucket %s ready", name)
	}

	return &Bucket{db: s.db, table: table}, nil
}

// Path returns the database location.
func (s *SQLite) Path() string { return s.path }

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Bucket is a KV over one SQLite table.
type Bucket struct {
	db    *sql.DB
	table string
}

func (b *Bucket) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		"SELECT value FROM "+b.table+" WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (b *Bucket) Set(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT INTO "+b.table+" (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (b *Bucket) Remove(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, "DELETE FROM "+b.table+" WHERE key = ?", key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
