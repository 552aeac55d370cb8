// Package formatcache persists each handler's SupportedFormats() list in
// SQLite, so the registry can skip calling Init on a handler whose format
// list is already known (spec.md §4.1's format cache).
package formatcache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"mediarouter/internal/router"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of this package and must be recreated.
var ErrSchemaMismatch = errors.New("formatcache: schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is a SQLite-backed router.FormatCache.
type Store struct {
	db   *sql.DB
	path string
}

var _ router.FormatCache = (*Store)(nil)

// Open creates or connects to the format cache database at path, guarding
// first-run schema creation with a sibling lock file so two processes
// racing to initialize the same cache directory don't corrupt it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("formatcache: ensure directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("formatcache: acquire init lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("formatcache: open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("formatcache: apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("formatcache: check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("formatcache: read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("formatcache: begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("formatcache: create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("formatcache: record schema version: %w", err)
	}
	return tx.Commit()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Get implements router.FormatCache.
func (s *Store) Get(handlerName string) ([]router.Format, bool) {
	var formatsJSON string
	err := s.db.QueryRow(
		"SELECT formats_json FROM handler_formats WHERE handler_name = ?", handlerName,
	).Scan(&formatsJSON)
	if err != nil {
		return nil, false
	}
	var formats []router.Format
	if err := json.Unmarshal([]byte(formatsJSON), &formats); err != nil {
		return nil, false
	}
	return formats, true
}

// Put implements router.FormatCache.
func (s *Store) Put(handlerName string, formats []router.Format) error {
	formatsJSON, err := json.Marshal(formats)
	if err != nil {
		return fmt.Errorf("formatcache: marshal formats for %s: %w", handlerName, err)
	}

	return retryOnBusy(context.Background(), func() error {
		_, execErr := s.db.Exec(
			`INSERT INTO handler_formats (handler_name, formats_json, updated_at)
             VALUES (?, ?, ?)
             ON CONFLICT(handler_name) DO UPDATE SET
                formats_json = excluded.formats_json,
                updated_at = excluded.updated_at`,
			handlerName, string(formatsJSON), time.Now().UTC().Format(time.RFC3339Nano),
		)
		return execErr
	})
}
