package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/gameloans/core/internal/ports"
)

type sqliteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore persists each collection as a JSON payload row in a single
// state table.
func NewSQLiteStore(path string) (*BlobStore, error) {
	if path == "" {
		path = "gameloans.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps writes from racing on the file lock
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return newBlobStore(&sqliteBackend{db: db, path: path}, false), nil
}

func (b *sqliteBackend) read(ctx context.Context, collection ports.Collection) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, string(collection)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	return payload, nil
}

func (b *sqliteBackend) write(ctx context.Context, collection ports.Collection, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		string(collection), data)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

func (b *sqliteBackend) ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}
