package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

func TestReconciliationUseCase_CheckConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("all balances match", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.EXPECT().BalanceSnapshots(gomock.Any()).Return([]*domain.BalanceSnapshot{
			{
				AccountCode:    1,
				OpeningBalance: decimal.NewFromInt(100),
				CashInBank:     decimal.NewFromInt(130),
				TotalCredits:   decimal.NewFromInt(50),
				TotalDebits:    decimal.NewFromInt(20),
			},
			{AccountCode: 2},
		}, nil)

		report, err := usecase.NewReconciliationUseCase(f.ledger).CheckConsistency(ctx)
		require.NoError(t, err)
		assert.True(t, report.Consistent)
		assert.Equal(t, 2, report.TotalAccounts)
		assert.Equal(t, 2, report.ReconciledAccounts)
		assert.Empty(t, report.Discrepancies)
	})

	t.Run("drift is reported per account", func(t *testing.T) {
		f := newFixture(t)
		f.ledger.EXPECT().BalanceSnapshots(gomock.Any()).Return([]*domain.BalanceSnapshot{
			{
				AccountCode:    1,
				AccountNo:      "SAV001 Main St ABC Bank",
				OpeningBalance: decimal.NewFromInt(100),
				CashInBank:     decimal.NewFromInt(90),
				TotalCredits:   decimal.Zero,
				TotalDebits:    decimal.Zero,
			},
		}, nil)

		report, err := usecase.NewReconciliationUseCase(f.ledger).CheckConsistency(ctx)
		require.NoError(t, err)
		assert.False(t, report.Consistent)
		require.Len(t, report.Discrepancies, 1)
		d := report.Discrepancies[0]
		assert.Equal(t, "SAV001 Main St ABC Bank", d.AccountNo)
		assert.True(t, d.Difference.Equal(decimal.NewFromInt(-10)))
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("boom")
		f.ledger.EXPECT().BalanceSnapshots(gomock.Any()).Return(nil, boom)

		_, err := usecase.NewReconciliationUseCase(f.ledger).CheckConsistency(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
