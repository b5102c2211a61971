package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

// GameHandler handles catalog requests
type GameHandler struct {
	catalogService ports.CatalogService
	logger         *logger.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(catalogService ports.CatalogService, logger *logger.Logger) *GameHandler {
	return &GameHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListGames godoc
// @Summary List games
// @Description List the catalog, optionally filtered
// @Tags games
// @Produce json
// @Param category query string false "Category"
// @Param console query string false "Console"
// @Param available query bool false "Availability"
// @Param q query string false "Case-insensitive title search"
// @Success 200 {array} entities.Game
// @Security BearerAuth
// @Router /games [get]
func (h *GameHandler) ListGames(c echo.Context) error {
	filter := ports.GameFilter{
		Category: c.QueryParam("category"),
		Console:  c.QueryParam("console"),
		Search:   c.QueryParam("q"),
	}

	if raw := c.QueryParam("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid available parameter")
		}
		filter.Available = &available
	}

	games, err := h.catalogService.ListGames(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, games)
}

// GetGame godoc
// @Summary Get game by ID
// @Tags games
// @Produce json
// @Param id path string true "Game ID"
// @Success 200 {object} entities.Game
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /games/{id} [get]
func (h *GameHandler) GetGame(c echo.Context) error {
	game, err := h.catalogService.GetGame(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, game)
}

// CreateGame godoc
// @Summary Add a game
// @Tags games
// @Accept json
// @Produce json
// @Param request body ports.CreateGameRequest true "Game data"
// @Success 201 {object} entities.Game
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /games [post]
func (h *GameHandler) CreateGame(c echo.Context) error {
	var req ports.CreateGameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	game, err := h.catalogService.AddGame(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, game)
}

// UpdateGame godoc
// @Summary Update a game
// @Description Change title, category, year or console. Availability is managed by loans.
// @Tags games
// @Accept json
// @Produce json
// @Param id path string true "Game ID"
// @Param request body ports.UpdateGameRequest true "Fields to change"
// @Success 200 {object} entities.Game
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /games/{id} [put]
func (h *GameHandler) UpdateGame(c echo.Context) error {
	var req ports.UpdateGameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	game, err := h.catalogService.UpdateGame(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, game)
}

// DeleteGame godoc
// @Summary Remove a game
// @Tags games
// @Param id path string true "Game ID"
// @Success 204
// @Failure 404 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /games/{id} [delete]
func (h *GameHandler) DeleteGame(c echo.Context) error {
	if err := h.catalogService.RemoveGame(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
