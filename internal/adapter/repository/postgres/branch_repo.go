package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

const selectBranch = `
	SELECT br.branch_code, br.branch_address, br.bank_code, b.bank_name,
	       br.contact_person, br.phone_no, COALESCE(br.fax_no, '')
	FROM branches br
	JOIN banks b ON b.bank_code = br.bank_code`

// BranchRepository implements usecase.BranchRepository.
type BranchRepository struct {
	repo
}

// NewBranchRepository creates a new BranchRepository.
func NewBranchRepository(source PoolSource) *BranchRepository {
	return &BranchRepository{repo{source: source}}
}

// Create inserts a branch and sets its generated code.
func (r *BranchRepository) Create(ctx context.Context, branch *domain.Branch) error {
	db, err := r.db()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO branches (branch_address, bank_code, contact_person, phone_no, fax_no)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING branch_code
	`

	err = db.QueryRow(ctx, query,
		branch.Address,
		branch.BankCode,
		branch.ContactPerson,
		branch.PhoneNo,
		branch.FaxNo,
	).Scan(&branch.Code)

	return mapPgError(err)
}

// GetByCode retrieves a branch with its bank name.
func (r *BranchRepository) GetByCode(ctx context.Context, code int64) (*domain.Branch, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	branch, err := scanBranch(db.QueryRow(ctx, selectBranch+` WHERE br.branch_code = $1`, code))
	if err != nil {
		return nil, notFoundOnNoRows(err, domain.ErrBranchNotFound)
	}

	return branch, nil
}

// List returns the branches of a bank, or all branches when bankCode is 0.
func (r *BranchRepository) List(ctx context.Context, bankCode int64) ([]*domain.Branch, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		selectBranch+` WHERE ($1::bigint = 0 OR br.bank_code = $1) ORDER BY b.bank_name, br.branch_address`,
		bankCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]*domain.Branch, 0)
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}

	return branches, rows.Err()
}

// ExistsByAddress reports whether another branch of the bank has address.
func (r *BranchRepository) ExistsByAddress(ctx context.Context, bankCode int64, address string, excludeCode int64) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM branches
			WHERE bank_code = $1 AND branch_address = $2 AND branch_code <> $3
		)
	`

	var exists bool
	err = db.QueryRow(ctx, query, bankCode, address, excludeCode).Scan(&exists)
	return exists, err
}

// GetByCodeForShare retrieves a branch with its bank name and share-locks
// both rows until tx ends. A concurrent rename of either waits for tx.
func (r *BranchRepository) GetByCodeForShare(ctx context.Context, tx usecase.Transaction, code int64) (*domain.Branch, error) {
	row := inTx(tx).QueryRow(ctx, selectBranch+` WHERE br.branch_code = $1 FOR SHARE OF br, b`, code)

	branch, err := scanBranch(row)
	if err != nil {
		return nil, notFoundOnNoRows(err, domain.ErrBranchNotFound)
	}

	return branch, nil
}

// Update overwrites a branch inside tx.
func (r *BranchRepository) Update(ctx context.Context, tx usecase.Transaction, branch *domain.Branch) error {
	query := `
		UPDATE branches
		SET branch_address = $2, bank_code = $3, contact_person = $4, phone_no = $5, fax_no = NULLIF($6, '')
		WHERE branch_code = $1
	`

	tag, err := inTx(tx).Exec(ctx, query,
		branch.Code,
		branch.Address,
		branch.BankCode,
		branch.ContactPerson,
		branch.PhoneNo,
		branch.FaxNo,
	)
	if err != nil {
		return mapPgError(err)
	}

	return expectOneRow(tag, domain.ErrBranchNotFound)
}

// Delete removes a branch inside tx.
func (r *BranchRepository) Delete(ctx context.Context, tx usecase.Transaction, code int64) error {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM branches WHERE branch_code = $1`, code)
	if err != nil {
		return err
	}
	return expectOneRow(tag, domain.ErrBranchNotFound)
}

// DeleteByBank removes every branch of a bank inside tx.
func (r *BranchRepository) DeleteByBank(ctx context.Context, tx usecase.Transaction, bankCode int64) (int64, error) {
	tag, err := inTx(tx).Exec(ctx, `DELETE FROM branches WHERE bank_code = $1`, bankCode)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanBranch(row pgx.Row) (*domain.Branch, error) {
	var b domain.Branch
	err := row.Scan(
		&b.Code,
		&b.Address,
		&b.BankCode,
		&b.BankName,
		&b.ContactPerson,
		&b.PhoneNo,
		&b.FaxNo,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
