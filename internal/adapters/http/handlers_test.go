package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gameloans/core/internal/adapters/repository"
	"github.com/gameloans/core/internal/application/services"
	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

var (
	adminClaims = &ports.Claims{UserID: "1", Name: "Administrador", Email: "admin@gameloans.com", Role: entities.UserRoleAdmin}
	mariaClaims = &ports.Claims{UserID: "3", Name: "María García", Email: "maria@email.com", Role: entities.UserRoleUser}
)

type handlerEnv struct {
	echo     *echo.Echo
	games    *GameHandler
	loans    *LoanHandler
	requests *RequestHandler
	catalog  *services.CatalogService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	log := logger.NewNop()
	ds := services.NewDataStore(repository.NewMemoryStore(), log)
	_, err := services.NewSeeder(ds, bcrypt.MinCost, log).Run(context.Background())
	require.NoError(t, err)

	v := services.NewValidator(ds.Now)
	catalog := services.NewCatalogService(ds, v, log)
	loans := services.NewLoanService(ds, nil, log)
	requests := services.NewRequestService(ds, v, nil, log)

	return &handlerEnv{
		echo:     echo.New(),
		games:    NewGameHandler(catalog, log),
		loans:    NewLoanHandler(loans, requests, log),
		requests: NewRequestHandler(requests, log),
		catalog:  catalog,
	}
}

func (env *handlerEnv) context(method, target, body string, claims *ports.Claims) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if claims != nil {
		c.Set(ClaimsKey, claims)
	}
	return c, rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func Test_GameHandler_ListGames_Filters(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.context(http.MethodGet, "/games?available=false", "", mariaClaims)
	require.NoError(t, env.games.ListGames(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	games := decode[[]entities.Game](t, rec)
	require.Len(t, games, 2)
	assert.Equal(t, "3", games[0].ID)
	assert.Equal(t, "6", games[1].ID)
}

func Test_GameHandler_ListGames_BadAvailable(t *testing.T) {
	env := newHandlerEnv(t)

	c, _ := env.context(http.MethodGet, "/games?available=maybe", "", mariaClaims)
	err := env.games.ListGames(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func Test_GameHandler_CreateAndDelete(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.context(http.MethodPost, "/games", `{"title":"Tetris","category":"Puzzle","year":1989,"console":"Game Boy"}`, adminClaims)
	require.NoError(t, env.games.CreateGame(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	game := decode[entities.Game](t, rec)
	assert.True(t, game.Available)

	c, rec = env.context(http.MethodDelete, "/games/"+game.ID, "", adminClaims)
	c.SetParamNames("id")
	c.SetParamValues(game.ID)
	require.NoError(t, env.games.DeleteGame(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.catalog.GetGame(context.Background(), game.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func Test_GameHandler_CreateGame_InvalidBody(t *testing.T) {
	env := newHandlerEnv(t)

	c, _ := env.context(http.MethodPost, "/games", `{"title":`, adminClaims)
	err := env.games.CreateGame(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func Test_RequestHandler_CreateRequest_UserRequestsForThemselves(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.context(http.MethodPost, "/loan-requests", `{"gameId":"7","userId":"2","userName":"Juan Pérez"}`, mariaClaims)
	require.NoError(t, env.requests.CreateRequest(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	request := decode[entities.LoanRequest](t, rec)
	assert.Equal(t, "3", request.UserID)
	assert.Equal(t, "María García", request.UserName)
	assert.Equal(t, "Minecraft", request.GameTitle)
	assert.Equal(t, entities.RequestStatusPending, request.Status)
}

func Test_RequestHandler_CreateRequest_AdminOnBehalfOfUser(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.context(http.MethodPost, "/loan-requests", `{"gameId":"7","userId":"2","userName":"Juan Pérez"}`, adminClaims)
	require.NoError(t, env.requests.CreateRequest(c))

	request := decode[entities.LoanRequest](t, rec)
	assert.Equal(t, "2", request.UserID)
	assert.Equal(t, "Juan Pérez", request.UserName)
}

func Test_RequestHandler_ListRequests_ScopedToCaller(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.context(http.MethodGet, "/loan-requests?userId=2", "", mariaClaims)
	require.NoError(t, env.requests.ListRequests(c))
	own := decode[[]entities.LoanRequest](t, rec)
	require.Len(t, own, 1)
	assert.Equal(t, "3", own[0].UserID)

	c, rec = env.context(http.MethodGet, "/loan-requests", "", adminClaims)
	require.NoError(t, env.requests.ListRequests(c))
	assert.Len(t, decode[[]entities.LoanRequest](t, rec), 2)
}

func Test_RequestHandler_DecideRequest(t *testing.T) {
	env := newHandlerEnv(t)

	c, _ := env.context(http.MethodPut, "/loan-requests/2", `{"action":"archive"}`, adminClaims)
	c.SetParamNames("id")
	c.SetParamValues("2")
	assert.ErrorIs(t, env.requests.DecideRequest(c), entities.ErrValidation)

	c, rec := env.context(http.MethodPut, "/loan-requests/2", `{"action":"approve"}`, adminClaims)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, env.requests.DecideRequest(c))

	request := decode[entities.LoanRequest](t, rec)
	assert.Equal(t, entities.RequestStatusApproved, request.Status)

	game, err := env.catalog.GetGame(context.Background(), "5")
	require.NoError(t, err)
	assert.False(t, game.Available)
	assert.Equal(t, "María García", *game.BorrowedBy)
}

func Test_LoanHandler_LendAndReturn(t *testing.T) {
	env := newHandlerEnv(t)

	c, rec := env.context(http.MethodPost, "/loans", `{"gameId":"7","borrowerName":"Ana"}`, adminClaims)
	require.NoError(t, env.loans.CreateLoan(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	loan := decode[entities.Loan](t, rec)
	assert.Equal(t, "Minecraft", loan.GameTitle)

	c, _ = env.context(http.MethodPost, "/loans", `{"gameId":"7","borrowerName":"Luis"}`, adminClaims)
	assert.ErrorIs(t, env.loans.CreateLoan(c), entities.ErrConflict)

	c, rec = env.context(http.MethodPut, "/loans/"+loan.ID, "", adminClaims)
	c.SetParamNames("id")
	c.SetParamValues(loan.ID)
	require.NoError(t, env.loans.ReturnLoan(c))
	returned := decode[entities.Loan](t, rec)
	assert.NotNil(t, returned.ReturnDate)

	c, rec = env.context(http.MethodGet, "/loans?status=closed", "", adminClaims)
	require.NoError(t, env.loans.ListLoans(c))
	closed := decode[[]entities.Loan](t, rec)
	require.Len(t, closed, 1)
	assert.Equal(t, loan.ID, closed[0].ID)

	game, err := env.catalog.GetGame(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, game.Available)
}
