package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/cashbook/internal/domain"
	store "github.com/iho/cashbook/internal/infrastructure/postgres"
	"github.com/iho/cashbook/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// PoolSource hands out the live pool. *store.Provider implements it.
type PoolSource interface {
	Acquire() (store.Pool, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repo struct {
	source PoolSource
}

func (r repo) db() (querier, error) {
	pool, err := r.source.Acquire()
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func inTx(tx usecase.Transaction) querier {
	return tx.(*Tx).PgxTx()
}

// mapPgError translates unique violations into domain conflicts.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case "accounts_account_no_key":
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNo, pgErr.Detail)
	case "banks_name_key":
		return domain.ErrDuplicateBankName
	case "branches_bank_address_key":
		return domain.ErrDuplicateBranchAddress
	default:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Message)
	}
}

func notFoundOnNoRows(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}

func expectOneRow(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
