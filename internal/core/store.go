// Package core provides the volume calculator, the well registry, the
// calculation history and the SQLite store backing them.
//
// INVARIANTS:
// - One SQL connection per store; all access is serialized
// - Schema setup is idempotent and runs on every start
// - Store is owned by the caller and injected, never a package global
package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

// SchemaVersion is the version recorded in store_meta.
const SchemaVersion = "1"

// MemoryPath opens a private in-memory store.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS wells (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    de              TEXT NOT NULL,
    para            TEXT NOT NULL,
    diam            INTEGER NOT NULL,
    comp            REAL NOT NULL,
    created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_wells_de ON wells(de);
CREATE INDEX IF NOT EXISTS idx_wells_para ON wells(para);

CREATE TABLE IF NOT EXISTS calculations (
    id              TEXT PRIMARY KEY,
    well_name       TEXT NOT NULL,
    distance        REAL NOT NULL,
    pipe_type       TEXT NOT NULL,
    operation_type  TEXT NOT NULL,
    volume_liters   REAL NOT NULL,
    volume_bbl      REAL NOT NULL,
    date            TEXT NOT NULL,
    created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_calculations_created ON calculations(created_at);

CREATE TABLE IF NOT EXISTS store_meta (
    key             TEXT PRIMARY KEY,
    value           TEXT NOT NULL
);

INSERT OR IGNORE INTO store_meta (key, value) VALUES
    ('schema_version', '` + SchemaVersion + `'),
    ('created_at', datetime('now'));
`

// Store wraps the embedded SQLite database, optionally SQLCipher-encrypted.
type Store struct {
	db        *sql.DB
	path      string
	encrypted bool
}

// OpenStore opens (creating if needed) the database at path.
// The passphrase is query-escaped into the DSN so any byte sequence
// round-trips to the key set by ChangePassphrase.
// If passphrase is empty the file is not encrypted. If the database exists
// and the passphrase is wrong, OpenStore fails.
func OpenStore(path string, passphrase string) (*Store, error) {
	var dsn string
	switch {
	case path == MemoryPath:
		dsn = "file::memory:"
		if passphrase != "" {
			dsn += "?_pragma_key=" + url.QueryEscape(passphrase)
		}
	case passphrase != "":
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma_key=%s&_journal_mode=WAL&_synchronous=NORMAL", path, url.QueryEscape(passphrase))
	default:
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps an in-memory
	// database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// This fails if the key is wrong
	var count int
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&count); err != nil {
		db.Close()
		if passphrase != "" {
			return nil, fmt.Errorf("invalid passphrase or corrupted database: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{
		db:        db,
		path:      path,
		encrypted: passphrase != "",
	}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Initialize creates the schema if it doesn't exist.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// IsEncrypted returns whether the database is encrypted.
func (s *Store) IsEncrypted() bool {
	return s.encrypted
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the schema version recorded at creation.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// ChangePassphrase re-encrypts the entire database with a new key.
func (s *Store) ChangePassphrase(ctx context.Context, newPassphrase string) error {
	if !s.encrypted {
		return fmt.Errorf("database is not encrypted")
	}
	if newPassphrase == "" {
		return fmt.Errorf("new passphrase must not be empty")
	}

	pragma := fmt.Sprintf("PRAGMA rekey = '%s';", strings.ReplaceAll(newPassphrase, "'", "''"))
	if _, err := s.db.ExecContext(ctx, pragma); err != nil {
		return fmt.Errorf("failed to change passphrase: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
