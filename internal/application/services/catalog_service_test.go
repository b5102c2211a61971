package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/ports"
)

func Test_CatalogService_AddGame(t *testing.T) {
	// arrange
	env := newTestEnv(t, false)

	// act
	game, err := env.catalog.AddGame(context.Background(), ports.CreateGameRequest{
		Title: "  Hollow Knight ", Category: "Metroidvania", Year: 2017, Console: "PC",
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "id-1", game.ID)
	assert.Equal(t, "Hollow Knight", game.Title)
	assert.True(t, game.Available)
	assert.Nil(t, game.BorrowedBy)
	assert.Nil(t, game.BorrowedDate)

	stored := env.game(t, "id-1")
	assert.Equal(t, *game, stored)
}

func Test_CatalogService_AddGame_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   ports.CreateGameRequest
		field string
	}{
		{"blank title", ports.CreateGameRequest{Title: "   ", Category: "RPG", Year: 2020, Console: "PC"}, "title"},
		{"missing category", ports.CreateGameRequest{Title: "Doom", Year: 1993, Console: "PC"}, "category"},
		{"missing console", ports.CreateGameRequest{Title: "Doom", Category: "Shooter", Year: 1993}, "console"},
		{"year too old", ports.CreateGameRequest{Title: "Doom", Category: "Shooter", Year: 1957, Console: "PC"}, "year"},
		{"year too far ahead", ports.CreateGameRequest{Title: "Doom", Category: "Shooter", Year: 2027, Console: "PC"}, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)

			_, err := env.catalog.AddGame(context.Background(), tt.req)

			var verr *entities.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, env.store.totalSaves())
		})
	}
}

func Test_CatalogService_AddGame_AcceptsYearBounds(t *testing.T) {
	env := newTestEnv(t, false)

	for _, year := range []int{FirstReleaseYear, testNow.Year() + 2} {
		_, err := env.catalog.AddGame(context.Background(), ports.CreateGameRequest{
			Title: "Tennis for Two", Category: "Sports", Year: year, Console: "Oscilloscope",
		})
		assert.NoError(t, err, "year %d", year)
	}
}

func Test_CatalogService_UpdateGame_KeepsAvailability(t *testing.T) {
	// arrange
	env := newTestEnv(t, true)
	title := "Halo Infinite (Campaign)"
	year := 2022

	// act
	game, err := env.catalog.UpdateGame(context.Background(), "3", ports.UpdateGameRequest{Title: &title, Year: &year})

	// assert
	require.NoError(t, err)
	assert.Equal(t, title, game.Title)
	assert.Equal(t, 2022, game.Year)
	assert.Equal(t, "Shooter", game.Category)
	assert.False(t, game.Available)
	require.NotNil(t, game.BorrowedBy)
	assert.Equal(t, "Juan Pérez", *game.BorrowedBy)
}

func Test_CatalogService_UpdateGame_Errors(t *testing.T) {
	env := newTestEnv(t, true)
	blank := "  "

	_, err := env.catalog.UpdateGame(context.Background(), "404", ports.UpdateGameRequest{})
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = env.catalog.UpdateGame(context.Background(), "1", ports.UpdateGameRequest{Title: &blank})
	assert.ErrorIs(t, err, entities.ErrValidation)
	assert.Equal(t, "The Legend of Zelda: Breath of the Wild", env.game(t, "1").Title)
}

func Test_CatalogService_RemoveGame(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		env := newTestEnv(t, true)
		err := env.catalog.RemoveGame(ctx, "404")
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("open loan", func(t *testing.T) {
		env := newTestEnv(t, true)
		err := env.catalog.RemoveGame(ctx, "3")
		assert.ErrorIs(t, err, entities.ErrConflict)
		assert.Equal(t, "3", env.game(t, "3").ID)
	})

	t.Run("pending request", func(t *testing.T) {
		env := newTestEnv(t, true)
		err := env.catalog.RemoveGame(ctx, "5")
		assert.ErrorIs(t, err, entities.ErrConflict)
	})

	t.Run("free game", func(t *testing.T) {
		env := newTestEnv(t, true)
		require.NoError(t, env.catalog.RemoveGame(ctx, "7"))

		_, err := env.catalog.GetGame(ctx, "7")
		assert.ErrorIs(t, err, entities.ErrNotFound)

		games, err := env.catalog.ListGames(ctx, ports.GameFilter{})
		require.NoError(t, err)
		assert.Len(t, games, 7)
	})
}

func Test_CatalogService_ListGames_Filters(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	available := true
	borrowed := false

	ids := func(games []entities.Game) []string {
		out := make([]string, 0, len(games))
		for _, g := range games {
			out = append(out, g.ID)
		}
		return out
	}

	all, err := env.catalog.ListGames(ctx, ports.GameFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8"}, ids(all))

	byConsole, err := env.catalog.ListGames(ctx, ports.GameFilter{Console: "nintendo switch"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4"}, ids(byConsole))

	byCategory, err := env.catalog.ListGames(ctx, ports.GameFilter{Category: "Shooter", Available: &available})
	require.NoError(t, err)
	assert.Equal(t, []string{"8"}, ids(byCategory))

	lent, err := env.catalog.ListGames(ctx, ports.GameFilter{Available: &borrowed})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "6"}, ids(lent))

	search, err := env.catalog.ListGames(ctx, ports.GameFilter{Search: "MARIO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(search))

	none, err := env.catalog.ListGames(ctx, ports.GameFilter{Search: "tetris"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func Test_CatalogService_MarkBorrowed_And_MarkReturned(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	game, err := env.catalog.MarkBorrowed(ctx, "1", "Ana", "2024-02-29")
	require.NoError(t, err)
	assert.False(t, game.Available)
	assert.Equal(t, "Ana", *game.BorrowedBy)
	assert.Equal(t, entities.Date("2024-02-29"), *game.BorrowedDate)

	_, err = env.catalog.MarkBorrowed(ctx, "1", "Luis", "2024-03-01")
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = env.catalog.MarkBorrowed(ctx, "404", "Luis", "2024-03-01")
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = env.catalog.MarkBorrowed(ctx, "2", " ", "2024-03-01")
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = env.catalog.MarkBorrowed(ctx, "2", "Luis", "01/03/2024")
	assert.ErrorIs(t, err, entities.ErrValidation)

	game, err = env.catalog.MarkReturned(ctx, "1")
	require.NoError(t, err)
	assert.True(t, game.Available)
	assert.Nil(t, game.BorrowedBy)
	assert.Nil(t, game.BorrowedDate)

	env.store.reset()
	game, err = env.catalog.MarkReturned(ctx, "1")
	require.NoError(t, err)
	assert.True(t, game.Available)
	assert.Zero(t, env.store.totalSaves(), "returning an available game writes nothing")

	_, err = env.catalog.MarkReturned(ctx, "404")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
