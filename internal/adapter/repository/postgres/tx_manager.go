package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/cashbook/internal/usecase"
)

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	source PoolSource
}

// NewTxManager creates a new TxManager.
func NewTxManager(source PoolSource) *TxManager {
	return &TxManager{source: source}
}

// Begin starts a new transaction on the live pool.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	pool, err := m.source.Acquire()
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction. Deferred constraint violations surface
// here and are mapped like any other write error.
func (t *Tx) Commit(ctx context.Context) error {
	return mapPgError(t.tx.Commit(ctx))
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
