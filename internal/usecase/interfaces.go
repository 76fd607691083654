package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
)

// BankRepository defines data access for banks.
type BankRepository interface {
	Create(ctx context.Context, bank *domain.Bank) error
	GetByCode(ctx context.Context, code int64) (*domain.Bank, error)
	List(ctx context.Context) ([]*domain.Bank, error)
	// ExistsByName compares case-insensitively and ignores excludeCode.
	ExistsByName(ctx context.Context, name string, excludeCode int64) (bool, error)
	Rename(ctx context.Context, tx Transaction, code int64, name string) error
	Delete(ctx context.Context, tx Transaction, code int64) error
}

// BranchRepository defines data access for branches.
type BranchRepository interface {
	Create(ctx context.Context, branch *domain.Branch) error
	GetByCode(ctx context.Context, code int64) (*domain.Branch, error)
	// List returns all branches when bankCode is zero.
	List(ctx context.Context, bankCode int64) ([]*domain.Branch, error)
	ExistsByAddress(ctx context.Context, bankCode int64, address string, excludeCode int64) (bool, error)
	// GetByCodeForShare reads a branch with its bank and share-locks both
	// rows until tx ends.
	GetByCodeForShare(ctx context.Context, tx Transaction, code int64) (*domain.Branch, error)
	Update(ctx context.Context, tx Transaction, branch *domain.Branch) error
	Delete(ctx context.Context, tx Transaction, code int64) error
	DeleteByBank(ctx context.Context, tx Transaction, bankCode int64) (int64, error)
}

// AccountRepository defines data access for accounts. Reads populate the
// branch address and bank name through joins.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByCode(ctx context.Context, code int64) (*domain.Account, error)
	GetByCodeForUpdate(ctx context.Context, tx Transaction, code int64) (*domain.Account, error)
	ListByBank(ctx context.Context, bankCode int64) ([]*domain.Account, error)
	ListByBranch(ctx context.Context, branchCode int64) ([]*domain.Account, error)
	// ListByBankForUpdate and ListByBranchForUpdate lock rows in account code order.
	ListByBankForUpdate(ctx context.Context, tx Transaction, bankCode int64) ([]*domain.Account, error)
	ListByBranchForUpdate(ctx context.Context, tx Transaction, branchCode int64) ([]*domain.Account, error)
	ExistsByAccountNo(ctx context.Context, tx Transaction, accountNo string, excludeCode int64) (bool, error)
	// FindAccountNoConflicts returns which of accountNos are held by accounts
	// outside excludeCodes.
	FindAccountNoConflicts(ctx context.Context, tx Transaction, accountNos []string, excludeCodes []int64) ([]string, error)
	// Update writes descriptive fields. It never touches the cached balance.
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	UpdateAccountNo(ctx context.Context, tx Transaction, code int64, prefix, accountNo string, updatedAt time.Time) error
	UpdateBalance(ctx context.Context, tx Transaction, code int64, balance decimal.Decimal, updatedAt time.Time) error
	Delete(ctx context.Context, code int64) error
	DeleteByBank(ctx context.Context, tx Transaction, bankCode int64) (int64, error)
	DeleteByBranch(ctx context.Context, tx Transaction, branchCode int64) (int64, error)
}

// ParticularRepository defines read access to the chart of accounts.
type ParticularRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Particular, error)
	List(ctx context.Context) ([]*domain.Particular, error)
}

// ExpenseRepository defines read access to expense categories.
type ExpenseRepository interface {
	Exists(ctx context.Context, code int64) (bool, error)
	List(ctx context.Context) ([]*domain.ExpenseCategory, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error)
	Years(ctx context.Context) ([]int, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	BalanceSnapshots(ctx context.Context) ([]*domain.BalanceSnapshot, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a unit of work on transient database failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not succeed so it can be retried.
	Release(ctx context.Context, key string) error
}

// IdempotencyPendingMarker is stored under a key while its first request is
// still running.
const IdempotencyPendingMarker = "processing"

// IsIdempotencyPending reports whether a stored value is the in-flight marker.
func IsIdempotencyPending(value []byte) bool {
	return string(value) == IdempotencyPendingMarker
}

// MetricsRecorder receives business events from the use cases.
type MetricsRecorder interface {
	TransactionPosted(direction domain.Direction, amount decimal.Decimal, duration time.Duration)
	TransactionRejected(reason string)
	AccountNosRewritten(trigger string, count int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) TransactionPosted(domain.Direction, decimal.Decimal, time.Duration) {}
func (NopMetrics) TransactionRejected(string)                                         {}
func (NopMetrics) AccountNosRewritten(string, int)                                    {}
