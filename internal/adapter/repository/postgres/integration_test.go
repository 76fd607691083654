//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	store "github.com/iho/cashbook/internal/infrastructure/postgres"
	"github.com/iho/cashbook/internal/usecase"
)

type testDB struct {
	pool   store.Pool
	source staticSource
	t      *testing.T
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := store.NewMigrator(dbURL, "../../../infrastructure/postgres/migrations", zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := store.NewPool(ctx, dbURL, 10, 0)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &testDB{pool: pool, source: staticSource{pool: pool}, t: t}
	db.truncateAll(ctx)
	return db
}

func (db *testDB) truncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.pool.Exec(ctx, `TRUNCATE TABLE ledger_entries, accounts, branches, banks RESTART IDENTITY CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

type services struct {
	banks    *usecase.BankUseCase
	branches *usecase.BranchUseCase
	accounts *usecase.AccountUseCase
	ledger   *usecase.LedgerUseCase
}

func (db *testDB) services() services {
	txManager := NewTxManager(db.source)
	retrier := NewRetrier()
	bankRepo := NewBankRepository(db.source)
	branchRepo := NewBranchRepository(db.source)
	accountRepo := NewAccountRepository(db.source)
	guard := usecase.NewUniquenessGuard(accountRepo)

	return services{
		banks:    usecase.NewBankUseCase(txManager, retrier, bankRepo, branchRepo, accountRepo, guard, usecase.NopMetrics{}),
		branches: usecase.NewBranchUseCase(txManager, retrier, bankRepo, branchRepo, accountRepo, guard, usecase.NopMetrics{}),
		accounts: usecase.NewAccountUseCase(txManager, retrier, accountRepo, branchRepo, guard),
		ledger: usecase.NewLedgerUseCase(txManager, retrier, accountRepo, NewEntryRepository(db.source),
			NewParticularRepository(db.source), NewExpenseRepository(db.source), NewReferenceGenerator(), usecase.NopMetrics{}),
	}
}

func (db *testDB) seedAccount(ctx context.Context, svc services, prefix string, opening int64) (*domain.Bank, *domain.Branch, *domain.Account) {
	db.t.Helper()

	bank, err := svc.banks.CreateBank(ctx, "ABC Bank")
	if err != nil {
		db.t.Fatalf("create bank: %v", err)
	}
	branch, err := svc.branches.CreateBranch(ctx, usecase.BranchInput{Address: "Main St", BankCode: bank.Code})
	if err != nil {
		db.t.Fatalf("create branch: %v", err)
	}
	account, err := svc.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		BankCode:       bank.Code,
		BranchCode:     branch.Code,
		Prefix:         prefix,
		AccountType:    "Savings",
		OpeningBalance: decimal.NewFromInt(opening),
		Active:         true,
	})
	if err != nil {
		db.t.Fatalf("create account: %v", err)
	}
	return bank, branch, account
}

func TestIntegrationBranchRenameCascade(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := db.services()

	bank, branch, account := db.seedAccount(ctx, svc, "SAV001", 0)
	other, err := svc.branches.CreateBranch(ctx, usecase.BranchInput{Address: "Dock 4", BankCode: bank.Code})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}
	untouched, err := svc.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		BankCode: bank.Code, BranchCode: other.Code, Prefix: "CHK002", Active: true,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	result, err := svc.branches.UpdateBranch(ctx, branch.Code, usecase.BranchInput{Address: "North Ave", BankCode: bank.Code})
	if err != nil {
		t.Fatalf("update branch: %v", err)
	}
	if result.AccountsRewritten != 1 {
		t.Fatalf("expected one rewritten account, got %d", result.AccountsRewritten)
	}

	got, err := svc.accounts.GetAccount(ctx, account.Code)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.AccountNo != "SAV001 North Ave ABC Bank" {
		t.Fatalf("unexpected account number %q", got.AccountNo)
	}

	kept, err := svc.accounts.GetAccount(ctx, untouched.Code)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if kept.AccountNo != "CHK002 Dock 4 ABC Bank" {
		t.Fatalf("other branch changed: %q", kept.AccountNo)
	}

	if _, err := svc.banks.RenameBank(ctx, bank.Code, "XYZ Bank"); err != nil {
		t.Fatalf("rename bank: %v", err)
	}
	got, _ = svc.accounts.GetAccount(ctx, account.Code)
	if got.AccountNo != "SAV001 North Ave XYZ Bank" {
		t.Fatalf("unexpected account number after bank rename %q", got.AccountNo)
	}
}

func TestIntegrationConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := db.services()

	_, _, account := db.seedAccount(ctx, svc, "SAV001", 100)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ledger.PostTransaction(ctx, usecase.PostTransactionInput{
				AccountCode: account.Code,
				Particular:  "Withdrawal",
				Amount:      decimal.NewFromInt(80),
			}, domain.ActingUser{Code: 1})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 || rejected.Load() != 1 {
		t.Fatalf("expected one success and one rejection, got %d/%d", succeeded.Load(), rejected.Load())
	}

	got, err := svc.accounts.GetAccount(ctx, account.Code)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected balance 20, got %s", got.Balance)
	}

	report, err := usecase.NewReconciliationUseCase(NewLedgerRepository(db.source)).CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("check consistency: %v", err)
	}
	if !report.Consistent {
		t.Fatalf("expected consistent ledger, got %+v", report.Discrepancies)
	}
}

func TestIntegrationDuplicateAccountNo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := db.services()

	bank, branch, _ := db.seedAccount(ctx, svc, "SAV001", 0)

	_, err := svc.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		BankCode: bank.Code, BranchCode: branch.Code, Prefix: "SAV001", Active: true,
	})
	if !errors.Is(err, domain.ErrDuplicateAccountNo) {
		t.Fatalf("expected duplicate account number, got %v", err)
	}
}

func TestIntegrationCreateWaitsForBranchRename(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := db.services()

	bank, branch, _ := db.seedAccount(ctx, svc, "SAV001", 0)

	renaming, err := db.pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer renaming.Rollback(ctx)
	if _, err := renaming.Exec(ctx, `UPDATE branches SET branch_address = 'North Ave' WHERE branch_code = $1`, branch.Code); err != nil {
		t.Fatalf("rename branch: %v", err)
	}

	type outcome struct {
		account *domain.Account
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		account, err := svc.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
			BankCode: bank.Code, BranchCode: branch.Code, Prefix: "CHK002", Active: true,
		})
		done <- outcome{account, err}
	}()

	select {
	case got := <-done:
		t.Fatalf("create finished while the branch row was being renamed: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}

	if err := renaming.Commit(ctx); err != nil {
		t.Fatalf("commit rename: %v", err)
	}

	got := <-done
	if got.err != nil {
		t.Fatalf("create account: %v", got.err)
	}
	if got.account.AccountNo != "CHK002 North Ave ABC Bank" {
		t.Fatalf("account number built from a stale branch: %q", got.account.AccountNo)
	}
}

func TestIntegrationAccountNosFollowConcurrentRenames(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := db.services()

	bank, branch, _ := db.seedAccount(ctx, svc, "SAV000", 0)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			address := "Main St"
			if i%2 == 0 {
				address = "North Ave"
			}
			if _, err := svc.branches.UpdateBranch(ctx, branch.Code, usecase.BranchInput{Address: address, BankCode: bank.Code}); err != nil {
				t.Errorf("update branch: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := svc.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
				BankCode: bank.Code, BranchCode: branch.Code, Prefix: fmt.Sprintf("SAV%03d", i+1), Active: true,
			})
			if err != nil {
				t.Errorf("create account: %v", err)
			}
		}()
	}
	wg.Wait()

	accounts, err := svc.accounts.ListAccounts(ctx, usecase.ListAccountsInput{BranchCode: branch.Code})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 21 {
		t.Fatalf("expected 21 accounts, got %d", len(accounts))
	}
	for _, acc := range accounts {
		want := acc.Prefix + " " + acc.BranchAddress + " " + acc.BankName
		if acc.AccountNo != want {
			t.Errorf("account %d: account number %q, want %q", acc.Code, acc.AccountNo, want)
		}
	}
}
