package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

const selectAccount = `
	SELECT a.account_code, a.account_no, a.account_prefix, a.account_type,
	       a.cash_in_bank, a.opening_balance, a.active,
	       a.branch_code, br.bank_code, br.branch_address, b.bank_name,
	       a.created_at, a.updated_at
	FROM accounts a
	JOIN branches br ON br.branch_code = a.branch_code
	JOIN banks b ON b.bank_code = br.bank_code`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	repo
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(source PoolSource) *AccountRepository {
	return &AccountRepository{repo{source: source}}
}

// Create inserts an account inside tx and sets its generated code and
// timestamps.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_no, account_prefix, account_type, cash_in_bank, opening_balance, active, branch_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING account_code, created_at, updated_at
	`

	err := inTx(tx).QueryRow(ctx, query,
		account.AccountNo,
		account.Prefix,
		account.AccountType,
		account.Balance,
		account.OpeningBalance,
		account.Active,
		account.BranchCode,
	).Scan(&account.Code, &account.CreatedAt, &account.UpdatedAt)

	return mapPgError(err)
}

// GetByCode retrieves an account with its branch and bank.
func (r *AccountRepository) GetByCode(ctx context.Context, code int64) (*domain.Account, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	account, err := scanAccount(db.QueryRow(ctx, selectAccount+` WHERE a.account_code = $1`, code))
	if err != nil {
		return nil, notFoundOnNoRows(err, domain.ErrAccountNotFound)
	}

	return account, nil
}

// GetByCodeForUpdate retrieves an account and locks its row until tx ends.
func (r *AccountRepository) GetByCodeForUpdate(ctx context.Context, tx usecase.Transaction, code int64) (*domain.Account, error) {
	row := inTx(tx).QueryRow(ctx, selectAccount+` WHERE a.account_code = $1 FOR UPDATE OF a`, code)

	account, err := scanAccount(row)
	if err != nil {
		return nil, notFoundOnNoRows(err, domain.ErrAccountNotFound)
	}

	return account, nil
}

// ListByBank returns the accounts held at any branch of a bank.
func (r *AccountRepository) ListByBank(ctx context.Context, bankCode int64) ([]*domain.Account, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	return collectAccounts(db.Query(ctx, selectAccount+` WHERE br.bank_code = $1 ORDER BY a.account_code`, bankCode))
}

// ListByBranch returns the accounts held at a branch.
func (r *AccountRepository) ListByBranch(ctx context.Context, branchCode int64) ([]*domain.Account, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	return collectAccounts(db.Query(ctx, selectAccount+` WHERE a.branch_code = $1 ORDER BY a.account_code`, branchCode))
}

// ListByBankForUpdate locks and returns a bank's accounts in code order.
func (r *AccountRepository) ListByBankForUpdate(ctx context.Context, tx usecase.Transaction, bankCode int64) ([]*domain.Account, error) {
	return collectAccounts(inTx(tx).Query(ctx,
		selectAccount+` WHERE br.bank_code = $1 ORDER BY a.account_code FOR UPDATE OF a`, bankCode))
}

// ListByBranchForUpdate locks and returns a branch's accounts in code order.
func (r *AccountRepository) ListByBranchForUpdate(ctx context.Context, tx usecase.Transaction, branchCode int64) ([]*domain.Account, error) {
	return collectAccounts(inTx(tx).Query(ctx,
		selectAccount+` WHERE a.branch_code = $1 ORDER BY a.account_code FOR UPDATE OF a`, branchCode))
}

// ExistsByAccountNo reports whether another account already has accountNo.
func (r *AccountRepository) ExistsByAccountNo(ctx context.Context, tx usecase.Transaction, accountNo string, excludeCode int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_no = $1 AND account_code <> $2)`

	var exists bool
	err := inTx(tx).QueryRow(ctx, query, accountNo, excludeCode).Scan(&exists)
	return exists, err
}

// FindAccountNoConflicts returns the numbers in accountNos already held by
// accounts outside excludeCodes.
func (r *AccountRepository) FindAccountNoConflicts(
	ctx context.Context,
	tx usecase.Transaction,
	accountNos []string,
	excludeCodes []int64,
) ([]string, error) {
	query := `
		SELECT account_no FROM accounts
		WHERE account_no = ANY($1) AND NOT (account_code = ANY($2))
		ORDER BY account_no
	`

	if len(accountNos) == 0 {
		return nil, nil
	}
	if excludeCodes == nil {
		excludeCodes = []int64{}
	}

	rows, err := inTx(tx).Query(ctx, query, accountNos, excludeCodes)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Update writes the user-editable fields inside tx. The cached balance is
// untouched.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET account_no = $2, account_prefix = $3, account_type = $4, active = $5, branch_code = $6, updated_at = $7
		WHERE account_code = $1
	`

	tag, err := inTx(tx).Exec(ctx, query,
		account.Code,
		account.AccountNo,
		account.Prefix,
		account.AccountType,
		account.Active,
		account.BranchCode,
		account.UpdatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}

	return expectOneRow(tag, domain.ErrAccountNotFound)
}

// UpdateAccountNo rewrites an account's number and prefix inside tx.
func (r *AccountRepository) UpdateAccountNo(ctx context.Context, tx usecase.Transaction, code int64, prefix, accountNo string, updatedAt time.Time) error {
	query := `UPDATE accounts SET account_prefix = $2, account_no = $3, updated_at = $4 WHERE account_code = $1`

	tag, err := inTx(tx).Exec(ctx, query, code, prefix, accountNo, updatedAt)
	if err != nil {
		return mapPgError(err)
	}

	return expectOneRow(tag, domain.ErrAccountNotFound)
}

// UpdateBalance sets the cached balance inside tx.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, code int64, balance decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE accounts SET cash_in_bank = $2, updated_at = $3 WHERE account_code = $1`

	tag, err := inTx(tx).Exec(ctx, query, code, balance, updatedAt)
	if err != nil {
		return err
	}

	return expectOneRow(tag, domain.ErrAccountNotFound)
}

// Delete removes an account and, through the foreign key, its entries.
func (r *AccountRepository) Delete(ctx context.Context, code int64) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `DELETE FROM accounts WHERE account_code = $1`, code)
	if err != nil {
		return err
	}

	return expectOneRow(tag, domain.ErrAccountNotFound)
}

// DeleteByBank removes every account of a bank inside tx.
func (r *AccountRepository) DeleteByBank(ctx context.Context, tx usecase.Transaction, bankCode int64) (int64, error) {
	query := `
		DELETE FROM accounts a
		USING branches br
		WHERE br.branch_code = a.branch_code AND br.bank_code = $1
	`

	tag, err := inTx(tx).Exec(ctx, query, bankCode)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// DeleteByBranch removes every account of a branch inside tx.
func (r *AccountRepository) DeleteByBranch(ctx context.Context, tx usecase.Transaction, branchCode int64) (int64, error) {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM accounts WHERE branch_code = $1`, branchCode)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.Code,
		&a.AccountNo,
		&a.Prefix,
		&a.AccountType,
		&a.Balance,
		&a.OpeningBalance,
		&a.Active,
		&a.BranchCode,
		&a.BankCode,
		&a.BranchAddress,
		&a.BankName,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAccounts(rows pgx.Rows, err error) ([]*domain.Account, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
