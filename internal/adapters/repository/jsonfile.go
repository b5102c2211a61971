package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gameloans/core/internal/ports"
)

type jsonFileBackend struct {
	dir string
}

// NewJSONFileStore keeps one indented JSON array per collection in dir
// (games.json, loans.json, loan-requests.json, users.json). Data directories
// written by earlier releases load unchanged.
func NewJSONFileStore(dir string) (*BlobStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return newBlobStore(&jsonFileBackend{dir: dir}, true), nil
}

func (b *jsonFileBackend) path(collection ports.Collection) string {
	return filepath.Join(b.dir, documentName(collection)+".json")
}

func (b *jsonFileBackend) read(_ context.Context, collection ports.Collection) ([]byte, error) {
	data, err := os.ReadFile(b.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// write replaces the file atomically through a temp file in the same directory.
func (b *jsonFileBackend) write(_ context.Context, collection ports.Collection, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, documentName(collection)+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(collection))
}

func (b *jsonFileBackend) ping(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}

func (b *jsonFileBackend) close() error { return nil }
