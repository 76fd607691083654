package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/cashbook/internal/domain"
)

// ParticularRepository implements usecase.ParticularRepository.
type ParticularRepository struct {
	repo
}

// NewParticularRepository creates a new ParticularRepository.
func NewParticularRepository(source PoolSource) *ParticularRepository {
	return &ParticularRepository{repo{source: source}}
}

// GetByName resolves a transaction type by its exact name.
func (r *ParticularRepository) GetByName(ctx context.Context, name string) (*domain.Particular, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT account_id, account_code, particular, credit, fund_transfer
		FROM particulars
		WHERE particular = $1
	`

	var p domain.Particular
	err = db.QueryRow(ctx, query, name).Scan(&p.ID, &p.Code, &p.Name, &p.Credit, &p.FundTransfer)
	if err != nil {
		return nil, notFoundOnNoRows(err, domain.ErrParticularNotFound)
	}

	return &p, nil
}

// List returns all transaction types.
func (r *ParticularRepository) List(ctx context.Context) ([]*domain.Particular, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT account_id, account_code, particular, credit, fund_transfer
		FROM particulars
		ORDER BY particular
	`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Particular, error) {
		var p domain.Particular
		err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Credit, &p.FundTransfer)
		return &p, err
	})
}

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	repo
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(source PoolSource) *ExpenseRepository {
	return &ExpenseRepository{repo{source: source}}
}

// Exists reports whether an active expense category has code.
func (r *ExpenseRepository) Exists(ctx context.Context, code int64) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}

	var exists bool
	err = db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM expenses WHERE expenses_code = $1 AND active)`, code,
	).Scan(&exists)
	return exists, err
}

// List returns the active expense categories.
func (r *ExpenseRepository) List(ctx context.Context) ([]*domain.ExpenseCategory, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT expenses_code, expenses, active
		FROM expenses
		WHERE active
		ORDER BY expenses
	`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.ExpenseCategory, error) {
		var e domain.ExpenseCategory
		err := row.Scan(&e.Code, &e.Name, &e.Active)
		return &e, err
	})
}
