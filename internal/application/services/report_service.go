package services

import (
	"context"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/ports"
)

// ReportService computes dashboard figures
type ReportService struct {
	ds *DataStore
}

// NewReportService creates a new report service
func NewReportService(ds *DataStore) *ReportService {
	return &ReportService{ds: ds}
}

// Summary counts games, loans and pending requests from one snapshot
func (s *ReportService) Summary(ctx context.Context) (*ports.Summary, error) {
	var summary ports.Summary
	err := s.ds.View(ctx, func(tx *Tx) error {
		for _, g := range tx.Games() {
			summary.TotalGames++
			if g.Available {
				summary.AvailableGames++
			} else {
				summary.BorrowedGames++
			}
		}
		for _, l := range tx.Loans() {
			if l.IsOpen() {
				summary.OpenLoans++
			} else {
				summary.ClosedLoans++
			}
		}
		for _, r := range tx.LoanRequests() {
			if r.Status == entities.RequestStatusPending {
				summary.PendingRequests++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
