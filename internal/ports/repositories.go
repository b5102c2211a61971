package ports

import (
	"context"
	"time"

	"github.com/gameloans/core/internal/domain/entities"
)

// Collection names a whole-collection unit of persistence.
type Collection string

const (
	CollectionGames        Collection = "games"
	CollectionLoans        Collection = "loans"
	CollectionLoanRequests Collection = "loan_requests"
	CollectionUsers        Collection = "users"
)

// Collections lists every collection in load order.
var Collections = []Collection{CollectionGames, CollectionLoans, CollectionLoanRequests, CollectionUsers}

// CollectionStore defines whole-collection load/replace persistence.
// Each Save replaces the stored collection; last writer wins.
type CollectionStore interface {
	LoadGames(ctx context.Context) ([]entities.Game, error)
	SaveGames(ctx context.Context, games []entities.Game) error
	LoadLoans(ctx context.Context) ([]entities.Loan, error)
	SaveLoans(ctx context.Context, loans []entities.Loan) error
	LoadLoanRequests(ctx context.Context) ([]entities.LoanRequest, error)
	SaveLoanRequests(ctx context.Context, requests []entities.LoanRequest) error
	LoadUsers(ctx context.Context) ([]entities.User, error)
	SaveUsers(ctx context.Context, users []entities.User) error
	Close() error
}

// HealthChecker is implemented by stores that can report backend health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Clock supplies the current time.
type Clock func() time.Time

// IDGenerator supplies fresh record ids, unique within a collection.
type IDGenerator func() string

// Filter types for listing queries
type GameFilter struct {
	Category  string
	Console   string
	Available *bool
	Search    string
}

// LoanStatus filters loans by open/closed state; empty means all.
type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "open"
	LoanStatusClosed LoanStatus = "closed"
)

type LoanFilter struct {
	Status   LoanStatus
	Borrower string
}

type LoanRequestFilter struct {
	UserID string
	Status entities.RequestStatus
}
