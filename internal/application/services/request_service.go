package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/infrastructure/metrics"
	"github.com/gameloans/core/internal/ports"
)

// RequestService handles the loan request workflow and the direct loan flows.
// Each operation is one unit of work across the catalog and the ledger.
type RequestService struct {
	ds        *DataStore
	validator *validator.Validate
	metrics   *metrics.Recorder
	logger    *logger.Logger
}

// NewRequestService creates a new request service
func NewRequestService(ds *DataStore, v *validator.Validate, rec *metrics.Recorder, logger *logger.Logger) *RequestService {
	return &RequestService{
		ds:        ds,
		validator: v,
		metrics:   rec,
		logger:    logger.WithComponent("requests"),
	}
}

// Submit creates a pending request dated today. Availability is not checked.
func (s *RequestService) Submit(ctx context.Context, req ports.SubmitLoanRequest) (*entities.LoanRequest, error) {
	req.GameID = strings.TrimSpace(req.GameID)
	req.GameTitle = strings.TrimSpace(req.GameTitle)
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserName = strings.TrimSpace(req.UserName)
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	var request entities.LoanRequest
	err := s.ds.Update(ctx, func(tx *Tx) error {
		title := req.GameTitle
		if title == "" {
			if game, err := tx.Game(req.GameID); err == nil {
				title = game.Title
			}
		}

		request = entities.LoanRequest{
			ID:          tx.NewID(ports.CollectionLoanRequests),
			GameID:      req.GameID,
			GameTitle:   title,
			UserID:      req.UserID,
			UserName:    req.UserName,
			RequestDate: tx.Today(),
			Status:      entities.RequestStatusPending,
		}
		tx.PutLoanRequest(request)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LoanRequest(metrics.OutcomeSubmitted)
	s.logger.Infow("Loan request submitted", "request_id", request.ID, "game_id", request.GameID, "user_id", request.UserID)
	return &request, nil
}

// Decide approves or rejects a pending request. Approval opens a loan for the
// requester and marks the game borrowed; the game must exist and be available.
// On any failure the request stays pending and nothing is written.
func (s *RequestService) Decide(ctx context.Context, requestID string, action entities.RequestAction) (*entities.LoanRequest, error) {
	if action != entities.RequestActionApprove && action != entities.RequestActionReject {
		return nil, &entities.ValidationError{Field: "action", Reason: "must be approve or reject"}
	}

	var (
		request *entities.LoanRequest
		loan    entities.Loan
	)
	err := s.ds.Update(ctx, func(tx *Tx) error {
		var err error
		request, err = tx.LoanRequest(requestID)
		if err != nil {
			return err
		}

		title := request.GameTitle
		if action == entities.RequestActionApprove && request.Status == entities.RequestStatusPending {
			game, err := tx.Game(request.GameID)
			if err != nil {
				return err
			}
			if !game.Available {
				return &entities.ConflictError{Entity: "game", ID: game.ID, Reason: "game is not available"}
			}
			if title == "" {
				title = game.Title
			}
		}

		if err := request.Decide(action); err != nil {
			return err
		}
		tx.PutLoanRequest(*request)

		if action == entities.RequestActionApprove {
			loan = openLoan(tx, request.GameID, title, request.UserName)
			if _, err := markBorrowed(tx, request.GameID, request.UserName, loan.BorrowDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if action == entities.RequestActionApprove {
		s.metrics.LoanRequest(metrics.OutcomeApproved)
		s.metrics.LoanOpened(metrics.SourceRequest)
		s.logger.Infow("Loan request approved", "request_id", request.ID, "game_id", request.GameID, "loan_id", loan.ID)
	} else {
		s.metrics.LoanRequest(metrics.OutcomeRejected)
		s.logger.Infow("Loan request rejected", "request_id", request.ID, "game_id", request.GameID)
	}
	return request, nil
}

// ListForUser lists the requests submitted by one user
func (s *RequestService) ListForUser(ctx context.Context, userID string) ([]entities.LoanRequest, error) {
	return s.ListRequests(ctx, ports.LoanRequestFilter{UserID: userID})
}

// ListRequests lists requests matching the filter in stored order
func (s *RequestService) ListRequests(ctx context.Context, filter ports.LoanRequestFilter) ([]entities.LoanRequest, error) {
	switch filter.Status {
	case "", entities.RequestStatusPending, entities.RequestStatusApproved, entities.RequestStatusRejected:
	default:
		return nil, &entities.ValidationError{Field: "status", Reason: "must be pending, approved or rejected"}
	}

	var requests []entities.LoanRequest
	err := s.ds.View(ctx, func(tx *Tx) error {
		all := tx.LoanRequests()
		requests = make([]entities.LoanRequest, 0, len(all))
		for _, r := range all {
			if filter.UserID != "" && r.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && r.Status != filter.Status {
				continue
			}
			requests = append(requests, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// DirectLoan lends an available game without a request
func (s *RequestService) DirectLoan(ctx context.Context, req ports.DirectLoanRequest) (*entities.Loan, error) {
	req.GameID = strings.TrimSpace(req.GameID)
	req.GameTitle = strings.TrimSpace(req.GameTitle)
	req.BorrowerName = strings.TrimSpace(req.BorrowerName)
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	var loan entities.Loan
	err := s.ds.Update(ctx, func(tx *Tx) error {
		game, err := tx.Game(req.GameID)
		if err != nil {
			return err
		}
		if !game.Available {
			return &entities.ConflictError{Entity: "game", ID: game.ID, Reason: "game is not available"}
		}

		title := req.GameTitle
		if title == "" {
			title = game.Title
		}

		loan = openLoan(tx, req.GameID, title, req.BorrowerName)
		_, err = markBorrowed(tx, req.GameID, req.BorrowerName, loan.BorrowDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LoanOpened(metrics.SourceDirect)
	s.logger.Infow("Direct loan created", "loan_id", loan.ID, "game_id", loan.GameID, "borrower", loan.BorrowerName)
	return &loan, nil
}

// DirectReturn closes a loan and makes its game available again
func (s *RequestService) DirectReturn(ctx context.Context, loanID string) (*entities.Loan, error) {
	var loan *entities.Loan
	err := s.ds.Update(ctx, func(tx *Tx) error {
		var err error
		loan, err = closeLoan(tx, loanID)
		if err != nil {
			return err
		}
		_, err = markReturned(tx, loan.GameID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LoanClosed()
	s.logger.Infow("Loan returned", "loan_id", loan.ID, "game_id", loan.GameID)
	return loan, nil
}
