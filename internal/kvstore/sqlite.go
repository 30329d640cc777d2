package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the store at dbPath, creating the file and its
// directory if needed. Use ":memory:" for a throwaway database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, ErrUnavailable.Wrap(err).WithContext("path", dbPath)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ErrUnavailable.Wrap(err).WithContext("path", dbPath)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ErrUnavailable.Wrap(fmt.Errorf("initialize schema: %w", err)).WithContext("path", dbPath)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AllKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, errors.StorageError("query keys").WithCause(err).Build()
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.StorageError("scan key").WithCause(err).Build()
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("iterate keys").WithCause(err).Build()
	}
	return keys, nil
}

func (s *SQLiteStore) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	// #nosec G202 -- only placeholders are concatenated
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, errors.StorageError("query values").WithCause(err).WithContext("keys", len(keys)).Build()
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.StorageError("scan value").WithCause(err).Build()
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("iterate values").WithCause(err).Build()
	}
	return out, nil
}

func (s *SQLiteStore) MultiSet(ctx context.Context, pairs map[string]string) error {
	keys := sortedKeys(pairs)
	return s.inTx(ctx, "write values", func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
				k, pairs[k],
			); err != nil {
				return fmt.Errorf("set %q: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) MultiRemove(ctx context.Context, keys []string) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return s.inTx(ctx, "remove values", func(tx *sql.Tx) error {
		for _, k := range sorted {
			if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", k); err != nil {
				return fmt.Errorf("remove %q: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StorageError(op).WithCause(err).Build()
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errors.StorageError(op).WithCause(err).Build()
	}
	if err := tx.Commit(); err != nil {
		return errors.StorageError(op).WithCause(err).Build()
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
