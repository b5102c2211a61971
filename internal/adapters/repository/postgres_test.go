package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/infrastructure/database"
	"github.com/gameloans/core/internal/ports"
)

func Test_PostgresStore_Queries(t *testing.T) {
	store := &PostgresStore{builder: goqu.Dialect(dialectPostgres)}

	query, args, err := store.selectQuery(ports.CollectionLoanRequests, requestColumns)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "game_id", "game_title", "user_id", "user_name", "request_date", "status" FROM "loan_requests" ORDER BY "position" ASC`, query)
	assert.Empty(t, args)

	query, _, err = store.deleteQuery(ports.CollectionGames)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "games"`, query)

	query, args, err = store.insertQuery(ports.CollectionUsers, nil)
	require.NoError(t, err)
	assert.Empty(t, query)
	assert.Nil(t, args)

	query, args, err = store.insertQuery(ports.CollectionLoans, []interface{}{
		goqu.Record{"id": "1", "position": 0},
		goqu.Record{"id": "2", "position": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "loans" ("id", "position") VALUES ($1, $2), ($3, $4)`, query)
	assert.Len(t, args, 4)
}

func Test_NullHelpers(t *testing.T) {
	assert.Nil(t, nullString(nil))
	assert.Equal(t, "Ana", nullString(strPtr("Ana")))

	assert.Nil(t, nullDate(nil))
	empty := entities.Date("")
	assert.Nil(t, nullDate(&empty))
	assert.Equal(t, "2024-01-15", nullDate(entities.Date("2024-01-15").Ptr()))
}

// TestPostgresStore runs against a migrated database named by GAMELOANS_TEST_DB_HOST.
func Test_PostgresStore(t *testing.T) {
	host := os.Getenv("GAMELOANS_TEST_DB_HOST")
	if host == "" {
		t.Skip("GAMELOANS_TEST_DB_HOST not set")
	}

	cfg := config.DatabaseConfig{
		Driver:          "pgx",
		Host:            host,
		Port:            5432,
		Name:            envOr("GAMELOANS_TEST_DB_NAME", "gameloans_test"),
		User:            envOr("GAMELOANS_TEST_DB_USER", "postgres"),
		Password:        os.Getenv("GAMELOANS_TEST_DB_PASSWORD"),
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}

	runStoreContract(t, func(t *testing.T) ports.CollectionStore {
		db, err := database.New(cfg)
		require.NoError(t, err)
		store := NewPostgresStore(db)
		ctx := context.Background()
		require.NoError(t, store.SaveGames(ctx, nil))
		require.NoError(t, store.SaveLoans(ctx, nil))
		require.NoError(t, store.SaveLoanRequests(ctx, nil))
		require.NoError(t, store.SaveUsers(ctx, nil))
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
