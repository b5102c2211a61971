package repository

import (
	"context"
	"fmt"

	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/infrastructure/database"
	"github.com/gameloans/core/internal/ports"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverJSONFile = "jsonfile"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Open constructs the collection store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (ports.CollectionStore, error) {
	switch cfg.Store.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverJSONFile, "":
		return NewJSONFileStore(cfg.Store.DataDir)
	case DriverSQLite:
		return NewSQLiteStore(cfg.Store.SQLitePath)
	case DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil
	case DriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
