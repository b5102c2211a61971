package ports

import (
	"context"

	"github.com/gameloans/core/internal/domain/entities"
)

// CatalogService interface for game catalog operations
type CatalogService interface {
	AddGame(ctx context.Context, req CreateGameRequest) (*entities.Game, error)
	GetGame(ctx context.Context, id string) (*entities.Game, error)
	UpdateGame(ctx context.Context, id string, req UpdateGameRequest) (*entities.Game, error)
	RemoveGame(ctx context.Context, id string) error
	ListGames(ctx context.Context, filter GameFilter) ([]entities.Game, error)
	MarkBorrowed(ctx context.Context, id, borrowerName string, date entities.Date) (*entities.Game, error)
	MarkReturned(ctx context.Context, id string) (*entities.Game, error)
}

// LoanService interface for loan ledger operations
type LoanService interface {
	OpenLoan(ctx context.Context, gameID, gameTitle, borrowerName string) (*entities.Loan, error)
	CloseLoan(ctx context.Context, loanID string) (*entities.Loan, error)
	GetLoan(ctx context.Context, id string) (*entities.Loan, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]entities.Loan, error)
	ListOpen(ctx context.Context) ([]entities.Loan, error)
	ListClosed(ctx context.Context) ([]entities.Loan, error)
	ListByBorrower(ctx context.Context, name string) ([]entities.Loan, error)
}

// RequestService interface for the loan request workflow
type RequestService interface {
	Submit(ctx context.Context, req SubmitLoanRequest) (*entities.LoanRequest, error)
	Decide(ctx context.Context, requestID string, action entities.RequestAction) (*entities.LoanRequest, error)
	ListForUser(ctx context.Context, userID string) ([]entities.LoanRequest, error)
	ListRequests(ctx context.Context, filter LoanRequestFilter) ([]entities.LoanRequest, error)
	DirectLoan(ctx context.Context, req DirectLoanRequest) (*entities.Loan, error)
	DirectReturn(ctx context.Context, loanID string) (*entities.Loan, error)
}

// AuthService interface for the user directory and tokens
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	FindByCredentials(ctx context.Context, email, password string) (*entities.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ReportService interface for dashboard figures
type ReportService interface {
	Summary(ctx context.Context) (*Summary, error)
}

// Request/Response Types

// Catalog related types
type CreateGameRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Category string `json:"category" validate:"required,max=100"`
	Year     int    `json:"year" validate:"release_year"`
	Console  string `json:"console" validate:"required,max=100"`
}

type UpdateGameRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Category *string `json:"category" validate:"omitempty,min=1,max=100"`
	Year     *int    `json:"year" validate:"omitempty,release_year"`
	Console  *string `json:"console" validate:"omitempty,min=1,max=100"`
}

// Workflow related types
type SubmitLoanRequest struct {
	GameID    string `json:"gameId" validate:"required"`
	GameTitle string `json:"gameTitle" validate:"max=200"`
	UserID    string `json:"userId" validate:"required"`
	UserName  string `json:"userName" validate:"required,max=200"`
}

type DecideRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

type DirectLoanRequest struct {
	GameID       string `json:"gameId" validate:"required"`
	GameTitle    string `json:"gameTitle" validate:"max=200"`
	BorrowerName string `json:"borrowerName" validate:"required,max=200"`
}

// Auth related types
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name     string            `json:"name" validate:"required,max=200"`
	Email    string            `json:"email" validate:"required,email"`
	Password string            `json:"password" validate:"required,min=6"`
	Role     entities.UserRole `json:"role" validate:"required,oneof=admin user"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID string            `json:"user_id"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
}

// Report related types
type Summary struct {
	TotalGames      int `json:"totalGames"`
	AvailableGames  int `json:"availableGames"`
	BorrowedGames   int `json:"borrowedGames"`
	OpenLoans       int `json:"openLoans"`
	ClosedLoans     int `json:"closedLoans"`
	PendingRequests int `json:"pendingRequests"`
}

// Common response types
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
