package postgres

import (
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	store "github.com/iho/cashbook/internal/infrastructure/postgres"
)

type staticSource struct {
	pool store.Pool
	err  error
}

func (s staticSource) Acquire() (store.Pool, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pool, nil
}

var unavailable = staticSource{err: fmt.Errorf("%w: store connecting", domain.ErrStoreUnavailable)}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

// decimalArg matches a decimal query argument by value.
type decimalArg string

func (d decimalArg) Match(v any) bool {
	got, ok := v.(decimal.Decimal)
	return ok && got.Equal(decimal.RequireFromString(string(d)))
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()
	pool.ExpectBegin()
	tx, err := NewTxManager(staticSource{pool: pool}).Begin(t.Context())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx.(*Tx)
}
