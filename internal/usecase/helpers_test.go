package usecase_test

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/cashbook/internal/usecase"
	"github.com/iho/cashbook/internal/usecase/mocks"
)

type fixture struct {
	ctrl        *gomock.Controller
	txManager   *mocks.MockTransactionManager
	tx          *mocks.MockTransaction
	retrier     *mocks.MockRetrier
	banks       *mocks.MockBankRepository
	branches    *mocks.MockBranchRepository
	accounts    *mocks.MockAccountRepository
	particulars *mocks.MockParticularRepository
	expenses    *mocks.MockExpenseRepository
	entries     *mocks.MockEntryRepository
	ledger      *mocks.MockLedgerRepository
	idGen       *mocks.MockIDGenerator
	cache       *mocks.MockCache
	metrics     *mocks.MockMetricsRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:        ctrl,
		txManager:   mocks.NewMockTransactionManager(ctrl),
		tx:          mocks.NewMockTransaction(ctrl),
		retrier:     mocks.NewMockRetrier(ctrl),
		banks:       mocks.NewMockBankRepository(ctrl),
		branches:    mocks.NewMockBranchRepository(ctrl),
		accounts:    mocks.NewMockAccountRepository(ctrl),
		particulars: mocks.NewMockParticularRepository(ctrl),
		expenses:    mocks.NewMockExpenseRepository(ctrl),
		entries:     mocks.NewMockEntryRepository(ctrl),
		ledger:      mocks.NewMockLedgerRepository(ctrl),
		idGen:       mocks.NewMockIDGenerator(ctrl),
		cache:       mocks.NewMockCache(ctrl),
		metrics:     mocks.NewMockMetricsRecorder(ctrl),
	}

	f.retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, op func() error) error { return op() }).
		AnyTimes()

	f.metrics.EXPECT().TransactionPosted(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	f.metrics.EXPECT().TransactionRejected(gomock.Any()).AnyTimes()
	f.metrics.EXPECT().AccountNosRewritten(gomock.Any(), gomock.Any()).AnyTimes()

	return f
}

// expectTx sets up one transaction. The deferred rollback is always allowed;
// Commit is only expected when commit is true, so an unexpected commit fails
// the test.
func (f *fixture) expectTx(commit bool) {
	f.txManager.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	if commit {
		f.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	}
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
}

func (f *fixture) guard() *usecase.UniquenessGuard {
	return usecase.NewUniquenessGuard(f.accounts)
}

func (f *fixture) bankUseCase() *usecase.BankUseCase {
	return usecase.NewBankUseCase(f.txManager, f.retrier, f.banks, f.branches, f.accounts, f.guard(), f.metrics)
}

func (f *fixture) branchUseCase() *usecase.BranchUseCase {
	return usecase.NewBranchUseCase(f.txManager, f.retrier, f.banks, f.branches, f.accounts, f.guard(), f.metrics)
}

func (f *fixture) accountUseCase() *usecase.AccountUseCase {
	return usecase.NewAccountUseCase(f.txManager, f.retrier, f.accounts, f.branches, f.guard())
}

func (f *fixture) ledgerUseCase() *usecase.LedgerUseCase {
	return usecase.NewLedgerUseCase(f.txManager, f.retrier, f.accounts, f.entries, f.particulars, f.expenses, f.idGen, f.metrics)
}
