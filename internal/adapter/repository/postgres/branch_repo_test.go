package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/cashbook/internal/domain"
)

var branchColumns = []string{
	"branch_code", "branch_address", "bank_code", "bank_name", "contact_person", "phone_no", "fax_no",
}

func TestBranchRepositoryList(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM branches br").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(branchColumns).
			AddRow(int64(7), "Main St", int64(3), "ABC Bank", "J. Doe", "555-0100", ""))

	branches, err := NewBranchRepository(staticSource{pool: pool}).List(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(branches) != 1 {
		t.Fatalf("expected one branch, got %d", len(branches))
	}
	if got := branches[0]; got.Address != "Main St" || got.BankName != "ABC Bank" {
		t.Fatalf("unexpected branch: %+v", got)
	}
}

func TestBranchRepositoryUpdate(t *testing.T) {
	t.Run("sibling address conflict", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("UPDATE branches").
			WithArgs(int64(7), "North Ave", int64(3), "", "", "").
			WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "branches_bank_address_key"})

		err := NewBranchRepository(staticSource{pool: pool}).Update(context.Background(), tx, &domain.Branch{
			Code:     7,
			Address:  "North Ave",
			BankCode: 3,
		})
		if !errors.Is(err, domain.ErrDuplicateBranchAddress) {
			t.Fatalf("expected duplicate branch address, got %v", err)
		}
	})

	t.Run("unknown branch", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectExec("UPDATE branches").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewBranchRepository(staticSource{pool: pool}).Update(context.Background(), tx, &domain.Branch{Code: 70})
		if !errors.Is(err, domain.ErrBranchNotFound) {
			t.Fatalf("expected branch not found, got %v", err)
		}
	})
}

func TestBranchRepositoryDeleteByBank(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	pool.ExpectExec("DELETE FROM branches WHERE bank_code").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := NewBranchRepository(staticSource{pool: pool}).DeleteByBank(context.Background(), tx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted branches, got %d", n)
	}
}

func TestBranchRepositoryGetByCodeForShare(t *testing.T) {
	t.Run("locks branch and bank", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectQuery(`WHERE br.branch_code = \$1 FOR SHARE OF br, b`).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(branchColumns).
				AddRow(int64(7), "Main St", int64(3), "ABC Bank", "", "", ""))

		branch, err := NewBranchRepository(staticSource{pool: pool}).GetByCodeForShare(context.Background(), tx, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if branch.Address != "Main St" || branch.BankName != "ABC Bank" || branch.BankCode != 3 {
			t.Fatalf("unexpected branch: %+v", branch)
		}
		assertExpectations(t, pool)
	})

	t.Run("unknown branch", func(t *testing.T) {
		pool := newMockPool(t)
		tx := beginTx(t, pool)
		pool.ExpectQuery("FOR SHARE OF br, b").
			WithArgs(int64(70)).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewBranchRepository(staticSource{pool: pool}).GetByCodeForShare(context.Background(), tx, 70)
		if !errors.Is(err, domain.ErrBranchNotFound) {
			t.Fatalf("expected branch not found, got %v", err)
		}
	})
}
