package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

// CatalogService handles game catalog operations
type CatalogService struct {
	ds        *DataStore
	validator *validator.Validate
	logger    *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(ds *DataStore, v *validator.Validate, logger *logger.Logger) *CatalogService {
	return &CatalogService{
		ds:        ds,
		validator: v,
		logger:    logger.WithComponent("catalog"),
	}
}

// AddGame adds an available game to the catalog
func (s *CatalogService) AddGame(ctx context.Context, req ports.CreateGameRequest) (*entities.Game, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Console = strings.TrimSpace(req.Console)
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	var game entities.Game
	err := s.ds.Update(ctx, func(tx *Tx) error {
		game = entities.Game{
			ID:        tx.NewID(ports.CollectionGames),
			Title:     req.Title,
			Category:  req.Category,
			Year:      req.Year,
			Console:   req.Console,
			Available: true,
		}
		tx.PutGame(game)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Game added", "game_id", game.ID, "title", game.Title)
	return &game, nil
}

// GetGame retrieves a game by ID
func (s *CatalogService) GetGame(ctx context.Context, id string) (*entities.Game, error) {
	var game *entities.Game
	err := s.ds.View(ctx, func(tx *Tx) error {
		var err error
		game, err = tx.Game(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// UpdateGame changes descriptive fields. Availability is owned by the loan flows.
func (s *CatalogService) UpdateGame(ctx context.Context, id string, req ports.UpdateGameRequest) (*entities.Game, error) {
	req.Title = trimPtr(req.Title)
	req.Category = trimPtr(req.Category)
	req.Console = trimPtr(req.Console)
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	var game *entities.Game
	err := s.ds.Update(ctx, func(tx *Tx) error {
		var err error
		game, err = tx.Game(id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			game.Title = *req.Title
		}
		if req.Category != nil {
			game.Category = *req.Category
		}
		if req.Year != nil {
			game.Year = *req.Year
		}
		if req.Console != nil {
			game.Console = *req.Console
		}

		tx.PutGame(*game)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Game updated", "game_id", game.ID)
	return game, nil
}

// RemoveGame deletes a game that no open loan or pending request references
func (s *CatalogService) RemoveGame(ctx context.Context, id string) error {
	err := s.ds.Update(ctx, func(tx *Tx) error {
		if _, err := tx.Game(id); err != nil {
			return err
		}

		for _, l := range tx.Loans() {
			if l.GameID == id && l.IsOpen() {
				return &entities.ConflictError{Entity: "game", ID: id, Reason: "game has an open loan"}
			}
		}
		for _, r := range tx.LoanRequests() {
			if r.GameID == id && r.Status == entities.RequestStatusPending {
				return &entities.ConflictError{Entity: "game", ID: id, Reason: "game has a pending loan request"}
			}
		}

		tx.DeleteGame(id)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Game removed", "game_id", id)
	return nil
}

// ListGames lists games matching the filter in stored order
func (s *CatalogService) ListGames(ctx context.Context, filter ports.GameFilter) ([]entities.Game, error) {
	var games []entities.Game
	err := s.ds.View(ctx, func(tx *Tx) error {
		games = filterGames(tx.Games(), filter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

func filterGames(games []entities.Game, filter ports.GameFilter) []entities.Game {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]entities.Game, 0, len(games))
	for _, g := range games {
		if filter.Category != "" && !strings.EqualFold(g.Category, filter.Category) {
			continue
		}
		if filter.Console != "" && !strings.EqualFold(g.Console, filter.Console) {
			continue
		}
		if filter.Available != nil && g.Available != *filter.Available {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(g.Title), search) {
			continue
		}
		result = append(result, g)
	}
	return result
}

// MarkBorrowed flips an available game to borrowed
func (s *CatalogService) MarkBorrowed(ctx context.Context, id, borrowerName string, date entities.Date) (*entities.Game, error) {
	borrowerName = strings.TrimSpace(borrowerName)
	if borrowerName == "" {
		return nil, &entities.ValidationError{Field: "borrowerName", Reason: "is required"}
	}
	if _, err := entities.ParseDate(date.String()); err != nil {
		return nil, err
	}

	var game *entities.Game
	err := s.ds.Update(ctx, func(tx *Tx) error {
		var err error
		game, err = markBorrowed(tx, id, borrowerName, date)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Game marked borrowed", "game_id", id, "borrower", borrowerName)
	return game, nil
}

// MarkReturned makes a game available again. It is a no-op for an available game.
func (s *CatalogService) MarkReturned(ctx context.Context, id string) (*entities.Game, error) {
	var game *entities.Game
	err := s.ds.Update(ctx, func(tx *Tx) error {
		var err error
		game, err = markReturned(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Game marked returned", "game_id", id)
	return game, nil
}

func markBorrowed(tx *Tx, id, borrowerName string, date entities.Date) (*entities.Game, error) {
	game, err := tx.Game(id)
	if err != nil {
		return nil, err
	}
	if err := game.MarkBorrowed(borrowerName, date); err != nil {
		return nil, err
	}
	tx.PutGame(*game)
	return game, nil
}

func markReturned(tx *Tx, id string) (*entities.Game, error) {
	game, err := tx.Game(id)
	if err != nil {
		return nil, err
	}
	if game.MarkReturned() {
		tx.PutGame(*game)
	}
	return game, nil
}
