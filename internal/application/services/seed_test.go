package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

func Test_Seeder_Run_SeedsEmptyCollections(t *testing.T) {
	// arrange
	env := newTestEnv(t, false)
	seeder := NewSeeder(env.ds, bcrypt.MinCost, logger.NewNop())

	// act
	report, err := seeder.Run(context.Background())

	// assert
	require.NoError(t, err)
	assert.Equal(t, SeedReport{
		ports.CollectionGames:        8,
		ports.CollectionLoans:        2,
		ports.CollectionLoanRequests: 2,
		ports.CollectionUsers:        3,
	}, report)

	summary, err := env.reports.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, summary.TotalGames)
	assert.Equal(t, 6, summary.AvailableGames)
	assert.Equal(t, 2, summary.BorrowedGames)
	assert.Equal(t, 2, summary.OpenLoans)
	assert.Zero(t, summary.ClosedLoans)
	assert.Equal(t, 1, summary.PendingRequests)
}

func Test_Seeder_Run_LeavesExistingDataAlone(t *testing.T) {
	// arrange
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, err := env.catalog.AddGame(ctx, ports.CreateGameRequest{Title: "Tetris", Category: "Puzzle", Year: 1989, Console: "Game Boy"})
	require.NoError(t, err)

	// act
	report, err := NewSeeder(env.ds, bcrypt.MinCost, logger.NewNop()).Run(ctx)

	// assert
	require.NoError(t, err)
	assert.NotContains(t, report, ports.CollectionGames)
	assert.Equal(t, 2, report[ports.CollectionLoans])

	games, err := env.catalog.ListGames(ctx, ports.GameFilter{})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Tetris", games[0].Title)

	again, err := NewSeeder(env.ds, bcrypt.MinCost, logger.NewNop()).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func Test_SeedGames_AreConsistentWithSeedLoans(t *testing.T) {
	games := SeedGames()
	borrowedBy := map[string]string{}
	for _, g := range games {
		assert.True(t, g.IsConsistent(), "game %s", g.ID)
		if !g.Available {
			borrowedBy[g.ID] = *g.BorrowedBy
		}
	}

	for _, l := range SeedLoans() {
		assert.True(t, l.IsOpen())
		assert.Equal(t, borrowedBy[l.GameID], l.BorrowerName)
	}
	assert.Len(t, borrowedBy, len(SeedLoans()))
}
