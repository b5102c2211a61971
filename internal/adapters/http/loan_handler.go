package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/ports"
)

// LoanHandler handles the admin loan ledger endpoints
type LoanHandler struct {
	loanService    ports.LoanService
	requestService ports.RequestService
	logger         *logger.Logger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService ports.LoanService, requestService ports.RequestService, logger *logger.Logger) *LoanHandler {
	return &LoanHandler{
		loanService:    loanService,
		requestService: requestService,
		logger:         logger,
	}
}

// ListLoans godoc
// @Summary List loans
// @Tags loans
// @Produce json
// @Param status query string false "open or closed"
// @Param borrower query string false "Borrower name"
// @Success 200 {array} entities.Loan
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c echo.Context) error {
	filter := ports.LoanFilter{
		Status:   ports.LoanStatus(c.QueryParam("status")),
		Borrower: c.QueryParam("borrower"),
	}

	loans, err := h.loanService.ListLoans(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loans)
}

// GetLoan godoc
// @Summary Get loan by ID
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} entities.Loan
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c echo.Context) error {
	loan, err := h.loanService.GetLoan(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loan)
}

// CreateLoan godoc
// @Summary Lend a game directly
// @Description Open a loan for an available game without a request
// @Tags loans
// @Accept json
// @Produce json
// @Param request body ports.DirectLoanRequest true "Loan data"
// @Success 201 {object} entities.Loan
// @Failure 404 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req ports.DirectLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	loan, err := h.requestService.DirectLoan(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, loan)
}

// ReturnLoan godoc
// @Summary Return a loan
// @Description Close the loan and make its game available again
// @Tags loans
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} entities.Loan
// @Failure 404 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /loans/{id} [put]
func (h *LoanHandler) ReturnLoan(c echo.Context) error {
	loan, err := h.requestService.DirectReturn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loan)
}

// StatsHandler serves dashboard figures
type StatsHandler struct {
	reportService ports.ReportService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(reportService ports.ReportService) *StatsHandler {
	return &StatsHandler{reportService: reportService}
}

// Summary godoc
// @Summary Dashboard figures
// @Tags stats
// @Produce json
// @Success 200 {object} ports.Summary
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) Summary(c echo.Context) error {
	summary, err := h.reportService.Summary(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
