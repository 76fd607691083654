package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/cashbook/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	repo
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(source PoolSource) *LedgerRepository {
	return &LedgerRepository{repo{source: source}}
}

// BalanceSnapshots returns every account's cached balance next to the
// totals of its ledger entries.
func (r *LedgerRepository) BalanceSnapshots(ctx context.Context) ([]*domain.BalanceSnapshot, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT a.account_code, a.account_no, a.opening_balance, a.cash_in_bank,
		       COALESCE(SUM(e.credit), 0), COALESCE(SUM(e.debit), 0)
		FROM accounts a
		LEFT JOIN ledger_entries e ON e.account_code = a.account_code
		GROUP BY a.account_code
		ORDER BY a.account_code
	`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.BalanceSnapshot, error) {
		var s domain.BalanceSnapshot
		err := row.Scan(
			&s.AccountCode,
			&s.AccountNo,
			&s.OpeningBalance,
			&s.CashInBank,
			&s.TotalCredits,
			&s.TotalDebits,
		)
		return &s, err
	})
}
