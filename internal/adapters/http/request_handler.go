package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

// RequestHandler handles loan request endpoints
type RequestHandler struct {
	requestService ports.RequestService
	logger         *logger.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService ports.RequestService, logger *logger.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// ListRequests godoc
// @Summary List loan requests
// @Description Administrators see every request; users see their own
// @Tags loan-requests
// @Produce json
// @Param userId query string false "User ID (admin only)"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {array} entities.LoanRequest
// @Security BearerAuth
// @Router /loan-requests [get]
func (h *RequestHandler) ListRequests(c echo.Context) error {
	filter := ports.LoanRequestFilter{
		UserID: c.QueryParam("userId"),
		Status: entities.RequestStatus(c.QueryParam("status")),
	}
	if !isAdmin(c) {
		filter.UserID = claimsFromContext(c).UserID
	}

	requests, err := h.requestService.ListRequests(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, requests)
}

// CreateRequest godoc
// @Summary Request a loan
// @Description Submit a pending request. Non-admin callers always request for themselves.
// @Tags loan-requests
// @Accept json
// @Produce json
// @Param request body ports.SubmitLoanRequest true "Request data"
// @Success 201 {object} entities.LoanRequest
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /loan-requests [post]
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	var req ports.SubmitLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	claims := claimsFromContext(c)
	if !isAdmin(c) || req.UserID == "" {
		req.UserID = claims.UserID
		req.UserName = claims.Name
	}

	request, err := h.requestService.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, request)
}

// DecideRequest godoc
// @Summary Approve or reject a request
// @Description Approval opens a loan for the requester and marks the game borrowed
// @Tags loan-requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body ports.DecideRequest true "Decision"
// @Success 200 {object} entities.LoanRequest
// @Failure 404 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /loan-requests/{id} [put]
func (h *RequestHandler) DecideRequest(c echo.Context) error {
	var req ports.DecideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	action, err := entities.ParseRequestAction(req.Action)
	if err != nil {
		return err
	}

	request, err := h.requestService.Decide(c.Request().Context(), c.Param("id"), action)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, request)
}
