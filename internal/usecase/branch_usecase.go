package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// BranchUseCase handles branch business logic.
type BranchUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	bankRepo    BankRepository
	branchRepo  BranchRepository
	accountRepo AccountRepository
	rewriter    *accountNoRewriter
	metrics     MetricsRecorder
}

// NewBranchUseCase creates a new BranchUseCase.
func NewBranchUseCase(
	txManager TransactionManager,
	retrier Retrier,
	bankRepo BankRepository,
	branchRepo BranchRepository,
	accountRepo AccountRepository,
	guard *UniquenessGuard,
	metrics MetricsRecorder,
) *BranchUseCase {
	return &BranchUseCase{
		txManager:   txManager,
		retrier:     retrier,
		bankRepo:    bankRepo,
		branchRepo:  branchRepo,
		accountRepo: accountRepo,
		rewriter:    &accountNoRewriter{accountRepo: accountRepo, guard: guard},
		metrics:     metrics,
	}
}

// BranchInput carries the writable fields of a branch.
type BranchInput struct {
	Address       string
	BankCode      int64
	ContactPerson string
	PhoneNo       string
	FaxNo         string
}

func (in BranchInput) toDomain(code int64, bank *domain.Bank) *domain.Branch {
	return &domain.Branch{
		Code:          code,
		Address:       strings.TrimSpace(in.Address),
		BankCode:      bank.Code,
		BankName:      bank.Name,
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		PhoneNo:       strings.TrimSpace(in.PhoneNo),
		FaxNo:         strings.TrimSpace(in.FaxNo),
	}
}

// validate checks the address, resolves the bank and rejects an address
// already used by another branch of the same bank.
func (uc *BranchUseCase) validate(ctx context.Context, input BranchInput, excludeCode int64) (*domain.Bank, error) {
	if err := domain.ValidateBranchAddress(input.Address); err != nil {
		return nil, err
	}

	bank, err := uc.bankRepo.GetByCode(ctx, input.BankCode)
	if err != nil {
		if errors.Is(err, domain.ErrBankNotFound) {
			return nil, domain.ErrInvalidBank
		}
		return nil, err
	}

	exists, err := uc.branchRepo.ExistsByAddress(ctx, bank.Code, strings.TrimSpace(input.Address), excludeCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateBranchAddress
	}

	return bank, nil
}

// CreateBranch creates a branch under an existing bank.
func (uc *BranchUseCase) CreateBranch(ctx context.Context, input BranchInput) (*domain.Branch, error) {
	bank, err := uc.validate(ctx, input, 0)
	if err != nil {
		return nil, err
	}

	branch := input.toDomain(0, bank)
	if err := uc.branchRepo.Create(ctx, branch); err != nil {
		return nil, err
	}

	return branch, nil
}

// GetBranch retrieves a branch by code.
func (uc *BranchUseCase) GetBranch(ctx context.Context, code int64) (*domain.Branch, error) {
	return uc.branchRepo.GetByCode(ctx, code)
}

// ListBranches lists branches, optionally restricted to one bank.
func (uc *BranchUseCase) ListBranches(ctx context.Context, bankCode int64) ([]*domain.Branch, error) {
	return uc.branchRepo.List(ctx, bankCode)
}

// UpdateBranch updates a branch, possibly moving it to another bank, and
// rewrites the account number of every account held at it.
func (uc *BranchUseCase) UpdateBranch(ctx context.Context, code int64, input BranchInput) (*RenameResult, error) {
	bank, err := uc.validate(ctx, input, code)
	if err != nil {
		return nil, err
	}

	branch := input.toDomain(code, bank)

	var result *RenameResult
	err = runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		var err error
		result, err = uc.updateBranch(ctx, branch)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.AccountNosRewritten(triggerBranchUpdate, result.AccountsRewritten)
	zerolog.Ctx(ctx).Info().
		Int64("branch_code", code).
		Str("branch_address", branch.Address).
		Int64("bank_code", branch.BankCode).
		Int("accounts_rewritten", result.AccountsRewritten).
		Msg("branch updated")

	return result, nil
}

func (uc *BranchUseCase) updateBranch(ctx context.Context, branch *domain.Branch) (*RenameResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.branchRepo.Update(ctx, tx, branch); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByBranchForUpdate(ctx, tx, branch.Code)
	if err != nil {
		return nil, err
	}

	rewritten, err := uc.rewriter.rewrite(ctx, tx, accounts, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &RenameResult{Branch: branch, AccountsRewritten: rewritten}, nil
}

// DeleteBranch removes a branch and its accounts.
func (uc *BranchUseCase) DeleteBranch(ctx context.Context, code int64) (*DeleteResult, error) {
	var result *DeleteResult
	err := runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		accounts, err := uc.accountRepo.DeleteByBranch(ctx, tx, code)
		if err != nil {
			return err
		}

		if err := uc.branchRepo.Delete(ctx, tx, code); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &DeleteResult{AccountsDeleted: accounts, BranchesDeleted: 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("branch_code", code).
		Int64("accounts_deleted", result.AccountsDeleted).
		Msg("branch deleted")

	return result, nil
}
