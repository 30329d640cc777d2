package securestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
)

// MemoryPath opens a database that lives only as long as the store.
const MemoryPath = ":memory:"

// SQLiteStore implements Store on a single SQLite file. The database is
// opened, and the key requested from the provider, on first use.
type SQLiteStore struct {
	path string

	mu       sync.Mutex
	provider KeyProvider
	db       *sql.DB
	aead     cipher.AEAD
	closed   bool
}

// New returns a store at path that is opened lazily.
func New(path string, provider KeyProvider) *SQLiteStore {
	return &SQLiteStore{path: path, provider: provider}
}

// Open returns a store at path that is already open.
func Open(ctx context.Context, path string, provider KeyProvider) (*SQLiteStore, error) {
	s := New(path, provider)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ready(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	if s.db != nil {
		return nil
	}
	return s.open(ctx)
}

func (s *SQLiteStore) open(ctx context.Context) error {
	key, err := s.provider.EncryptionKey(ctx)
	if err != nil {
		return errors.WrapError(err, errors.CategoryKeychain, "load secure store key").
			WithContext("path", s.path).
			Fatal().
			Build()
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return ErrInvalidKey.Wrap(err).WithContext("length", len(key))
	}

	if s.path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return errors.StorageError("create secure store directory").
				WithCause(err).
				WithContext("path", s.path).
				Build()
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.StorageError("open secure store").WithCause(err).WithContext("path", s.path).Build()
	}
	// A :memory: database is private to one connection.
	db.SetMaxOpenConns(1)

	if err := initialize(ctx, db); err != nil {
		_ = db.Close()
		return errors.StorageError("initialize secure store schema").WithCause(err).WithContext("path", s.path).Build()
	}

	s.db = db
	s.aead = aead
	return nil
}

func initialize(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS secrets (
		key TEXT PRIMARY KEY,
		nonce BLOB NOT NULL,
		ciphertext BLOB NOT NULL
	);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Put seals value and stores it under key. The key is bound to the
// ciphertext as additional data.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.InternalError("generate nonce").WithCause(err).Build()
	}
	sealed := s.aead.Seal(nil, nonce, value, []byte(key))

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO secrets (key, nonce, ciphertext) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET nonce = excluded.nonce, ciphertext = excluded.ciphertext",
		key, nonce, sealed,
	)
	if err != nil {
		return errors.StorageError("write secure store entry").WithCause(err).WithContext("key", key).Build()
	}
	return nil
}

// Get returns the decrypted value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var nonce, sealed []byte
	err := s.db.QueryRowContext(ctx, "SELECT nonce, ciphertext FROM secrets WHERE key = ?", key).Scan(&nonce, &sealed)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound.WithContext("key", key)
	}
	if err != nil {
		return nil, errors.StorageError("read secure store entry").WithCause(err).WithContext("key", key).Build()
	}

	plain, err := s.aead.Open(nil, nonce, sealed, []byte(key))
	if err != nil {
		return nil, ErrDecrypt.Wrap(err).WithContext("key", key)
	}
	return plain, nil
}

// Delete removes key. Removing a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM secrets WHERE key = ?", key); err != nil {
		return errors.StorageError("delete secure store entry").WithCause(err).WithContext("key", key).Build()
	}
	return nil
}

// Reinitialise closes the database, deletes its files and reopens an empty
// store with the key now returned by provider, which replaces the store's
// provider for later opens. A closed store is reopened.
func (s *SQLiteStore) Reinitialise(ctx context.Context, provider KeyProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Warn("Closing secure store before reinitialise failed", logfields.Path(s.path), logfields.Error(err))
		}
		s.db = nil
		s.aead = nil
	}

	s.provider = provider
	s.closed = false

	if s.path != MemoryPath {
		for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm", s.path + "-journal"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return ErrReinitialiseFailed.Wrap(err).WithContext("path", p)
			}
		}
	}

	if err := s.open(ctx); err != nil {
		return ErrReinitialiseFailed.Wrap(err).WithContext("path", s.path)
	}
	slog.Info("Secure store reinitialised", logfields.Path(s.path))
	return nil
}

// Close releases the database. Further calls other than Reinitialise
// return ErrClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.aead = nil
	return err
}
