package repository

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/ports"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// blobBackend stores one JSON document per collection.
// read returns nil data and no error when the collection was never written.
type blobBackend interface {
	read(ctx context.Context, collection ports.Collection) ([]byte, error)
	write(ctx context.Context, collection ports.Collection, data []byte) error
	close() error
}

type pinger interface {
	ping(ctx context.Context) error
}

// BlobStore implements ports.CollectionStore on top of a blob backend.
// Memory, JSON file, SQLite and S3 stores all share it.
type BlobStore struct {
	backend blobBackend
	indent  bool
}

func newBlobStore(backend blobBackend, indent bool) *BlobStore {
	return &BlobStore{backend: backend, indent: indent}
}

func (s *BlobStore) LoadGames(ctx context.Context) ([]entities.Game, error) {
	return loadCollection[entities.Game](ctx, s.backend, ports.CollectionGames)
}

func (s *BlobStore) SaveGames(ctx context.Context, games []entities.Game) error {
	return saveCollection(ctx, s, ports.CollectionGames, games)
}

func (s *BlobStore) LoadLoans(ctx context.Context) ([]entities.Loan, error) {
	return loadCollection[entities.Loan](ctx, s.backend, ports.CollectionLoans)
}

func (s *BlobStore) SaveLoans(ctx context.Context, loans []entities.Loan) error {
	return saveCollection(ctx, s, ports.CollectionLoans, loans)
}

func (s *BlobStore) LoadLoanRequests(ctx context.Context) ([]entities.LoanRequest, error) {
	return loadCollection[entities.LoanRequest](ctx, s.backend, ports.CollectionLoanRequests)
}

func (s *BlobStore) SaveLoanRequests(ctx context.Context, requests []entities.LoanRequest) error {
	return saveCollection(ctx, s, ports.CollectionLoanRequests, requests)
}

func (s *BlobStore) LoadUsers(ctx context.Context) ([]entities.User, error) {
	return loadCollection[entities.User](ctx, s.backend, ports.CollectionUsers)
}

func (s *BlobStore) SaveUsers(ctx context.Context, users []entities.User) error {
	return saveCollection(ctx, s, ports.CollectionUsers, users)
}

// HealthCheck reaches the backend when it supports it.
func (s *BlobStore) HealthCheck(ctx context.Context) error {
	if p, ok := s.backend.(pinger); ok {
		return p.ping(ctx)
	}
	return nil
}

// Close releases backend resources
func (s *BlobStore) Close() error {
	return s.backend.close()
}

func loadCollection[T any](ctx context.Context, backend blobBackend, collection ports.Collection) ([]T, error) {
	data, err := backend.read(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return decodeCollection[T](collection, data)
}

func saveCollection[T any](ctx context.Context, s *BlobStore, collection ports.Collection, records []T) error {
	data, err := encodeCollection(records, s.indent)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := s.backend.write(ctx, collection, data); err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}
	return nil
}

// decodeCollection treats a missing, empty or null document as an empty collection.
func decodeCollection[T any](collection ports.Collection, data []byte) ([]T, error) {
	records := []T{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func encodeCollection[T any](records []T, indent bool) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	if indent {
		return json.MarshalIndent(records, "", "  ")
	}
	return json.Marshal(records)
}

// documentName is the file/object base name of a collection. The request
// collection keeps the hyphenated name the JSON data files have always used.
func documentName(collection ports.Collection) string {
	if collection == ports.CollectionLoanRequests {
		return "loan-requests"
	}
	return string(collection)
}
