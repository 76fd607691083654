package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	accountRepo AccountRepository
	branchRepo  BranchRepository
	guard       *UniquenessGuard
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	branchRepo BranchRepository,
	guard *UniquenessGuard,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		retrier:     retrier,
		accountRepo: accountRepo,
		branchRepo:  branchRepo,
		guard:       guard,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	BankCode       int64
	BranchCode     int64
	Prefix         string
	AccountType    string
	OpeningBalance decimal.Decimal
	Active         bool
}

// UpdateAccountInput represents input for updating an account. The cached
// balance is not part of it: only the ledger moves money. A zero BankCode
// means the bank of the branch.
type UpdateAccountInput struct {
	BankCode    int64
	BranchCode  int64
	Prefix      string
	AccountType string
	Active      bool
}

// resolveBranch loads the branch with its bank and share-locks both rows
// until tx ends, so a rename cannot commit between reading the address and
// writing the account number. A zero bankCode accepts any bank.
func (uc *AccountUseCase) resolveBranch(ctx context.Context, tx Transaction, bankCode, branchCode int64) (*domain.Branch, error) {
	branch, err := uc.branchRepo.GetByCodeForShare(ctx, tx, branchCode)
	if err != nil {
		if errors.Is(err, domain.ErrBranchNotFound) {
			return nil, domain.ErrInvalidBranch
		}
		return nil, err
	}

	if bankCode != 0 && branch.BankCode != bankCode {
		return nil, domain.ErrInvalidBranch
	}

	return branch, nil
}

// CreateAccount creates an account whose account number is derived from the
// prefix and the branch and bank it is held at.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	prefix := strings.TrimSpace(input.Prefix)
	if err := domain.ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	if err := domain.ValidateOpeningBalance(input.OpeningBalance); err != nil {
		return nil, err
	}

	if input.BankCode <= 0 {
		return nil, domain.ErrInvalidBranch
	}

	var account *domain.Account
	err := runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		var err error
		account, err = uc.createAccount(ctx, prefix, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("account_code", account.Code).
		Str("account_no", account.AccountNo).
		Msg("account created")

	return account, nil
}

func (uc *AccountUseCase) createAccount(ctx context.Context, prefix string, input CreateAccountInput) (*domain.Account, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	branch, err := uc.resolveBranch(ctx, tx, input.BankCode, input.BranchCode)
	if err != nil {
		return nil, err
	}

	accountNo, err := domain.BuildAccountNo(prefix, branch.Address, branch.BankName)
	if err != nil {
		return nil, err
	}

	if err := uc.guard.CheckAvailable(ctx, tx, accountNo, 0); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		AccountNo:      accountNo,
		Prefix:         prefix,
		AccountType:    strings.TrimSpace(input.AccountType),
		Balance:        input.OpeningBalance,
		OpeningBalance: input.OpeningBalance,
		Active:         input.Active,
		BranchCode:     branch.Code,
		BankCode:       branch.BankCode,
		BranchAddress:  branch.Address,
		BankName:       branch.BankName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateAccount changes an account's descriptive fields and recomputes its
// account number.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, code int64, input UpdateAccountInput) (*domain.Account, error) {
	prefix := strings.TrimSpace(input.Prefix)
	if err := domain.ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		var err error
		account, err = uc.updateAccount(ctx, code, prefix, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (uc *AccountUseCase) updateAccount(ctx context.Context, code int64, prefix string, input UpdateAccountInput) (*domain.Account, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		return nil, err
	}

	branch, err := uc.resolveBranch(ctx, tx, input.BankCode, input.BranchCode)
	if err != nil {
		return nil, err
	}

	accountNo, err := domain.BuildAccountNo(prefix, branch.Address, branch.BankName)
	if err != nil {
		return nil, err
	}

	if err := uc.guard.CheckAvailable(ctx, tx, accountNo, code); err != nil {
		return nil, err
	}

	account.AccountNo = accountNo
	account.Prefix = prefix
	account.AccountType = strings.TrimSpace(input.AccountType)
	account.Active = input.Active
	account.BranchCode = branch.Code
	account.BankCode = branch.BankCode
	account.BranchAddress = branch.Address
	account.BankName = branch.BankName
	account.UpdatedAt = time.Now().UTC()

	if err := uc.accountRepo.Update(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by code.
func (uc *AccountUseCase) GetAccount(ctx context.Context, code int64) (*domain.Account, error) {
	return uc.accountRepo.GetByCode(ctx, code)
}

// ListAccountsInput selects accounts by bank or by branch. BranchCode wins
// when both are set.
type ListAccountsInput struct {
	BankCode   int64
	BranchCode int64
}

// ListAccounts lists accounts of a bank or a branch.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	switch {
	case input.BranchCode > 0:
		return uc.accountRepo.ListByBranch(ctx, input.BranchCode)
	case input.BankCode > 0:
		return uc.accountRepo.ListByBank(ctx, input.BankCode)
	default:
		return nil, domain.ErrInvalidBranch
	}
}

// DeleteAccount deletes an account and its ledger entries.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, code int64) error {
	return uc.accountRepo.Delete(ctx, code)
}
