package services

import (
	"context"
	"strings"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/infrastructure/metrics"
	"github.com/gameloans/core/internal/ports"
)

// LoanService handles the loan ledger
type LoanService struct {
	ds      *DataStore
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewLoanService creates a new loan service
func NewLoanService(ds *DataStore, rec *metrics.Recorder, logger *logger.Logger) *LoanService {
	return &LoanService{
		ds:      ds,
		metrics: rec,
		logger:  logger.WithComponent("loans"),
	}
}

// OpenLoan records a loan dated today. It does not touch the catalog.
func (s *LoanService) OpenLoan(ctx context.Context, gameID, gameTitle, borrowerName string) (*entities.Loan, error) {
	gameID = strings.TrimSpace(gameID)
	borrowerName = strings.TrimSpace(borrowerName)
	if gameID == "" {
		return nil, &entities.ValidationError{Field: "gameId", Reason: "is required"}
	}
	if borrowerName == "" {
		return nil, &entities.ValidationError{Field: "borrowerName", Reason: "is required"}
	}

	var loan entities.Loan
	err := s.ds.Update(ctx, func(tx *Tx) error {
		loan = openLoan(tx, gameID, gameTitle, borrowerName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LoanOpened(metrics.SourceDirect)
	s.logger.Infow("Loan opened", "loan_id", loan.ID, "game_id", gameID, "borrower", borrowerName)
	return &loan, nil
}

// CloseLoan sets today's return date on an open loan. It does not touch the catalog.
func (s *LoanService) CloseLoan(ctx context.Context, loanID string) (*entities.Loan, error) {
	var loan *entities.Loan
	err := s.ds.Update(ctx, func(tx *Tx) error {
		var err error
		loan, err = closeLoan(tx, loanID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LoanClosed()
	s.logger.Infow("Loan closed", "loan_id", loan.ID, "game_id", loan.GameID)
	return loan, nil
}

// GetLoan retrieves a loan by ID
func (s *LoanService) GetLoan(ctx context.Context, id string) (*entities.Loan, error) {
	var loan *entities.Loan
	err := s.ds.View(ctx, func(tx *Tx) error {
		var err error
		loan, err = tx.Loan(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListLoans lists loans matching the filter in stored order
func (s *LoanService) ListLoans(ctx context.Context, filter ports.LoanFilter) ([]entities.Loan, error) {
	if filter.Status != "" && filter.Status != ports.LoanStatusOpen && filter.Status != ports.LoanStatusClosed {
		return nil, &entities.ValidationError{Field: "status", Reason: "must be open or closed"}
	}

	var loans []entities.Loan
	err := s.ds.View(ctx, func(tx *Tx) error {
		loans = filterLoans(tx.Loans(), filter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

func (s *LoanService) ListOpen(ctx context.Context) ([]entities.Loan, error) {
	return s.ListLoans(ctx, ports.LoanFilter{Status: ports.LoanStatusOpen})
}

func (s *LoanService) ListClosed(ctx context.Context) ([]entities.Loan, error) {
	return s.ListLoans(ctx, ports.LoanFilter{Status: ports.LoanStatusClosed})
}

// ListByBorrower matches the borrower name exactly, ignoring case.
func (s *LoanService) ListByBorrower(ctx context.Context, name string) ([]entities.Loan, error) {
	return s.ListLoans(ctx, ports.LoanFilter{Borrower: name})
}

func filterLoans(loans []entities.Loan, filter ports.LoanFilter) []entities.Loan {
	borrower := strings.TrimSpace(filter.Borrower)
	result := make([]entities.Loan, 0, len(loans))
	for _, l := range loans {
		switch filter.Status {
		case ports.LoanStatusOpen:
			if !l.IsOpen() {
				continue
			}
		case ports.LoanStatusClosed:
			if l.IsOpen() {
				continue
			}
		}
		if borrower != "" && !strings.EqualFold(l.BorrowerName, borrower) {
			continue
		}
		result = append(result, l)
	}
	return result
}

func openLoan(tx *Tx, gameID, gameTitle, borrowerName string) entities.Loan {
	loan := entities.Loan{
		ID:           tx.NewID(ports.CollectionLoans),
		GameID:       gameID,
		GameTitle:    gameTitle,
		BorrowerName: borrowerName,
		BorrowDate:   tx.Today(),
	}
	tx.PutLoan(loan)
	return loan
}

func closeLoan(tx *Tx, loanID string) (*entities.Loan, error) {
	loan, err := tx.Loan(loanID)
	if err != nil {
		return nil, err
	}
	if err := loan.Close(tx.Today()); err != nil {
		return nil, err
	}
	tx.PutLoan(*loan)
	return loan, nil
}
