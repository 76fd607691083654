package postgres

import (
	"context"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	repo
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(source PoolSource) *BankRepository {
	return &BankRepository{repo{source: source}}
}

// Create inserts a bank and sets its generated code.
func (r *BankRepository) Create(ctx context.Context, bank *domain.Bank) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	query := `INSERT INTO banks (bank_name) VALUES ($1) RETURNING bank_code`

	return mapPgError(db.QueryRow(ctx, query, bank.Name).Scan(&bank.Code))
}

// GetByCode retrieves a bank by code.
func (r *BankRepository) GetByCode(ctx context.Context, code int64) (*domain.Bank, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	query := `SELECT bank_code, bank_name FROM banks WHERE bank_code = $1`

	var bank domain.Bank
	if err := db.QueryRow(ctx, query, code).Scan(&bank.Code, &bank.Name); err != nil {
		return nil, notFoundOnNoRows(err, domain.ErrBankNotFound)
	}

	return &bank, nil
}

// List returns all banks ordered by name.
func (r *BankRepository) List(ctx context.Context) ([]*domain.Bank, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT bank_code, bank_name FROM banks ORDER BY bank_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := make([]*domain.Bank, 0)
	for rows.Next() {
		var bank domain.Bank
		if err := rows.Scan(&bank.Code, &bank.Name); err != nil {
			return nil, err
		}
		banks = append(banks, &bank)
	}

	return banks, rows.Err()
}

// ExistsByName reports whether another bank already uses name, ignoring case.
func (r *BankRepository) ExistsByName(ctx context.Context, name string, excludeCode int64) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}

	query := `SELECT EXISTS (SELECT 1 FROM banks WHERE LOWER(bank_name) = LOWER($1) AND bank_code <> $2)`

	var exists bool
	err = db.QueryRow(ctx, query, name, excludeCode).Scan(&exists)
	return exists, err
}

// Rename sets a new bank name inside tx.
func (r *BankRepository) Rename(ctx context.Context, tx usecase.Transaction, code int64, name string) error {
	tag, err := inTx(tx).Exec(ctx, `UPDATE banks SET bank_name = $2 WHERE bank_code = $1`, code, name)
	if err != nil {
		return mapPgError(err)
	}
	return expectOneRow(tag, domain.ErrBankNotFound)
}

// Delete removes a bank inside tx.
func (r *BankRepository) Delete(ctx context.Context, tx usecase.Transaction, code int64) error {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM banks WHERE bank_code = $1`, code)
	if err != nil {
		return err
	}
	return expectOneRow(tag, domain.ErrBankNotFound)
}
