package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationUseCase checks cached balances against the ledger.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledgerRepo: ledgerRepo}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountCode       int64
	AccountNo         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	Consistent         bool
	CheckedAt          time.Time
}

// CheckConsistency verifies for every account that the cached balance equals
// opening balance plus credits minus debits.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (*ReconciliationReport, error) {
	snapshots, err := uc.ledgerRepo.BalanceSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(snapshots),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, s := range snapshots {
		expected := s.Expected()
		if expected.Equal(s.CashInBank) {
			report.ReconciledAccounts++
			continue
		}

		report.Discrepancies = append(report.Discrepancies, &ReconciliationResult{
			AccountCode:       s.AccountCode,
			AccountNo:         s.AccountNo,
			RecordedBalance:   s.CashInBank,
			CalculatedBalance: expected,
			Difference:        s.CashInBank.Sub(expected),
		})
	}

	report.Consistent = len(report.Discrepancies) == 0

	return report, nil
}
