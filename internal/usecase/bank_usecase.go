package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// BankUseCase handles bank business logic, including the account number
// cascade triggered by a rename.
type BankUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	bankRepo    BankRepository
	branchRepo  BranchRepository
	accountRepo AccountRepository
	rewriter    *accountNoRewriter
	metrics     MetricsRecorder
}

// NewBankUseCase creates a new BankUseCase.
func NewBankUseCase(
	txManager TransactionManager,
	retrier Retrier,
	bankRepo BankRepository,
	branchRepo BranchRepository,
	accountRepo AccountRepository,
	guard *UniquenessGuard,
	metrics MetricsRecorder,
) *BankUseCase {
	return &BankUseCase{
		txManager:   txManager,
		retrier:     retrier,
		bankRepo:    bankRepo,
		branchRepo:  branchRepo,
		accountRepo: accountRepo,
		rewriter:    &accountNoRewriter{accountRepo: accountRepo, guard: guard},
		metrics:     metrics,
	}
}

// CreateBank creates a bank with a unique name.
func (uc *BankUseCase) CreateBank(ctx context.Context, name string) (*domain.Bank, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateBankName(name); err != nil {
		return nil, err
	}

	exists, err := uc.bankRepo.ExistsByName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateBankName
	}

	bank := &domain.Bank{Name: name}
	if err := uc.bankRepo.Create(ctx, bank); err != nil {
		return nil, err
	}

	return bank, nil
}

// GetBank retrieves a bank by code.
func (uc *BankUseCase) GetBank(ctx context.Context, code int64) (*domain.Bank, error) {
	return uc.bankRepo.GetByCode(ctx, code)
}

// ListBanks lists all banks.
func (uc *BankUseCase) ListBanks(ctx context.Context) ([]*domain.Bank, error) {
	return uc.bankRepo.List(ctx)
}

// RenameResult reports the outcome of a cascading rename.
type RenameResult struct {
	Bank              *domain.Bank
	Branch            *domain.Branch
	AccountsRewritten int
}

// RenameBank renames a bank and rewrites the account number of every account
// held at any of its branches. Either everything commits or nothing does.
func (uc *BankUseCase) RenameBank(ctx context.Context, code int64, name string) (*RenameResult, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateBankName(name); err != nil {
		return nil, err
	}

	exists, err := uc.bankRepo.ExistsByName(ctx, name, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateBankName
	}

	var result *RenameResult
	err = runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		var err error
		result, err = uc.renameBank(ctx, code, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.AccountNosRewritten(triggerBankRename, result.AccountsRewritten)
	zerolog.Ctx(ctx).Info().
		Int64("bank_code", code).
		Str("bank_name", name).
		Int("accounts_rewritten", result.AccountsRewritten).
		Msg("bank renamed")

	return result, nil
}

func (uc *BankUseCase) renameBank(ctx context.Context, code int64, name string) (*RenameResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.bankRepo.Rename(ctx, tx, code, name); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByBankForUpdate(ctx, tx, code)
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

	return &RenameResult{
		Bank:              &domain.Bank{Code: code, Name: name},
		AccountsRewritten: rewritten,
	}, nil
}

// DeleteResult reports how many dependent rows a cascading delete removed.
type DeleteResult struct {
	AccountsDeleted int64
	BranchesDeleted int64
}

// DeleteBank removes a bank together with its branches and their accounts.
func (uc *BankUseCase) DeleteBank(ctx context.Context, code int64) (*DeleteResult, error) {
	var result *DeleteResult
	err := runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		accounts, err := uc.accountRepo.DeleteByBank(ctx, tx, code)
		if err != nil {
			return err
		}

		branches, err := uc.branchRepo.DeleteByBank(ctx, tx, code)
		if err != nil {
			return err
		}

		if err := uc.bankRepo.Delete(ctx, tx, code); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &DeleteResult{AccountsDeleted: accounts, BranchesDeleted: branches}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Int64("bank_code", code).
		Int64("accounts_deleted", result.AccountsDeleted).
		Int64("branches_deleted", result.BranchesDeleted).
		Msg("bank deleted")

	return result, nil
}
