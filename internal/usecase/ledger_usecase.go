package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
)

// LedgerUseCase applies transactions to account balances and reads the
// ledger back.
type LedgerUseCase struct {
	txManager      TransactionManager
	retrier        Retrier
	accountRepo    AccountRepository
	entryRepo      EntryRepository
	particularRepo ParticularRepository
	expenseRepo    ExpenseRepository
	idGen          IDGenerator
	metrics        MetricsRecorder

	cache    Cache
	cacheTTL time.Duration
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	particularRepo ParticularRepository,
	expenseRepo ExpenseRepository,
	idGen IDGenerator,
	metrics MetricsRecorder,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:      txManager,
		retrier:        retrier,
		accountRepo:    accountRepo,
		entryRepo:      entryRepo,
		particularRepo: particularRepo,
		expenseRepo:    expenseRepo,
		idGen:          idGen,
		metrics:        metrics,
	}
}

// WithParticularCache enables cache-aside lookups of particulars by name.
func (uc *LedgerUseCase) WithParticularCache(cache Cache, ttl time.Duration) *LedgerUseCase {
	if ttl <= 0 {
		ttl = DefaultParticularCacheTTL
	}
	uc.cache = cache
	uc.cacheTTL = ttl
	return uc
}

// PostTransactionInput represents a single posting request. BankCode and
// BranchCode are optional; when set the account must be held there.
type PostTransactionInput struct {
	AccountCode int64
	BankCode    int64
	BranchCode  int64
	Particular  string
	Amount      decimal.Decimal
	ExpenseCode *int64
	Notes       string
}

// PostTransactionResult is the committed outcome of a posting.
type PostTransactionResult struct {
	Entry      *domain.Entry
	NewBalance decimal.Decimal
	Timestamp  time.Time
}

// PostTransaction validates a posting, then in one transaction locks the
// account, moves its balance and appends the ledger entry.
func (uc *LedgerUseCase) PostTransaction(ctx context.Context, input PostTransactionInput, user domain.ActingUser) (*PostTransactionResult, error) {
	start := time.Now()

	result, err := uc.postTransaction(ctx, input, user)
	if err != nil {
		uc.metrics.TransactionRejected(rejectionReason(err))
		return nil, err
	}

	uc.metrics.TransactionPosted(result.Entry.Direction(), result.Entry.Amount(), time.Since(start))
	zerolog.Ctx(ctx).Info().
		Int64("account_code", input.AccountCode).
		Str("reference", result.Entry.Reference).
		Str("direction", string(result.Entry.Direction())).
		Str("amount", result.Entry.Amount().StringFixed(domain.AmountScale)).
		Str("balance", result.NewBalance.StringFixed(domain.AmountScale)).
		Int64("user_code", user.Code).
		Msg("transaction posted")

	return result, nil
}

func (uc *LedgerUseCase) postTransaction(ctx context.Context, input PostTransactionInput, user domain.ActingUser) (*PostTransactionResult, error) {
	if user.Code <= 0 {
		return nil, domain.ErrMissingUserCode
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(input.Notes)
	if utf8.RuneCountInString(notes) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: notes exceed %d characters", domain.ErrValidation, domain.MaxNotesLength)
	}

	particular, err := uc.lookupParticular(ctx, strings.TrimSpace(input.Particular))
	if err != nil {
		return nil, err
	}

	if input.ExpenseCode != nil {
		exists, err := uc.expenseRepo.Exists(ctx, *input.ExpenseCode)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrInvalidExpenseCategory
		}
	}

	var result *PostTransactionResult
	err = runUnit(ctx, uc.retrier, func(ctx context.Context) error {
		var err error
		result, err = uc.apply(ctx, input, particular, notes, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *LedgerUseCase) apply(
	ctx context.Context,
	input PostTransactionInput,
	particular *domain.Particular,
	notes string,
	user domain.ActingUser,
) (*PostTransactionResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByCodeForUpdate(ctx, tx, input.AccountCode)
	if err != nil {
		return nil, err
	}

	if (input.BankCode > 0 && account.BankCode != input.BankCode) ||
		(input.BranchCode > 0 && account.BranchCode != input.BranchCode) {
		return nil, domain.ErrAccountNotFound
	}

	if !account.Active {
		return nil, domain.ErrAccountInactive
	}

	direction := particular.Direction()

	var newBalance decimal.Decimal
	if direction == domain.DirectionCredit {
		newBalance = account.ApplyCredit(input.Amount)
	} else {
		if err := account.ValidateDebit(input.Amount); err != nil {
			return nil, err
		}
		newBalance = account.ApplyDebit(input.Amount)
	}

	now := time.Now().UTC()

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.Code, newBalance, now); err != nil {
		return nil, err
	}

	entry := domain.NewEntry(direction, input.Amount)
	entry.Reference = uc.idGen.Generate()
	entry.AccountCode = account.Code
	entry.ParticularID = particular.ID
	entry.ExpenseCode = input.ExpenseCode
	entry.UserCode = user.Code
	entry.Notes = notes
	entry.CreatedAt = now

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &PostTransactionResult{
		Entry:      entry,
		NewBalance: newBalance,
		Timestamp:  now,
	}, nil
}

// lookupParticular resolves a particular by name through the cache when one
// is configured. Cache failures fall through to the repository.
func (uc *LedgerUseCase) lookupParticular(ctx context.Context, name string) (*domain.Particular, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: transaction type is required", domain.ErrValidation)
	}

	if uc.cache == nil {
		return uc.particularRepo.GetByName(ctx, name)
	}

	key := particularCacheKeyPrefix + strings.ToLower(name)

	if raw, err := uc.cache.Get(ctx, key); err == nil {
		var p domain.Particular
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("particular cache read failed")
	}

	particular, err := uc.particularRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(particular); err == nil {
		if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("particular cache write failed")
		}
	}

	return particular, nil
}

// ListTransactions returns ledger entries, newest first.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", domain.ErrValidation)
	}

	filter.Limit = domain.ValidateLimit(filter.Limit)

	return uc.entryRepo.List(ctx, filter)
}

// TransactionYears returns the distinct years that have ledger entries.
func (uc *LedgerUseCase) TransactionYears(ctx context.Context) ([]int, error) {
	return uc.entryRepo.Years(ctx)
}

// ListParticulars returns the transaction types.
func (uc *LedgerUseCase) ListParticulars(ctx context.Context) ([]*domain.Particular, error) {
	return uc.particularRepo.List(ctx)
}

// ListExpenses returns the expense categories.
func (uc *LedgerUseCase) ListExpenses(ctx context.Context) ([]*domain.ExpenseCategory, error) {
	return uc.expenseRepo.List(ctx)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
