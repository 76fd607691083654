package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrAdminShutdown        = "57P01"
	pgErrCrashShutdown        = "57P02"
	pgClassConnection         = "08"
)

// Invalidator is told when the pool behind a failed unit of work is broken.
// *store.Provider implements it.
type Invalidator interface {
	Invalidate(err error)
}

// RetryPolicy bounds how long a unit of work is retried.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy suits short ledger transactions that lose lock races.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier implements usecase.Retrier. Deadlocks and serialization failures
// rerun the whole unit of work; a lost connection invalidates the pool and
// fails fast with domain.ErrStoreUnavailable.
type Retrier struct {
	policy      RetryPolicy
	invalidator Invalidator
}

// NewRetrier creates a Retrier with DefaultRetryPolicy.
func NewRetrier() *Retrier {
	return &Retrier{policy: DefaultRetryPolicy}
}

// WithPolicy replaces the retry policy.
func (r *Retrier) WithPolicy(p RetryPolicy) *Retrier {
	r.policy = p
	return r
}

// WithInvalidator reports connection failures to inv.
func (r *Retrier) WithInvalidator(inv Invalidator) *Retrier {
	r.invalidator = inv
	return r
}

// Retry runs operation until it succeeds, fails permanently or the policy
// runs out.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if isConnectionError(err) {
			if r.invalidator != nil {
				r.invalidator.Invalidate(err)
			}
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err))
		}

		code, ok := retryableCode(err)
		if !ok {
			return backoff.Permanent(err)
		}

		attempt++
		if attempt > r.policy.MaxRetries {
			return backoff.Permanent(err)
		}

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("sqlstate", code).
			Int("retry", attempt).
			Msg("ledger transaction lost a lock race, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// retryableCode reports whether err is a deadlock or serialization failure.
func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return pgErr.Code, true
		}
	}
	return "", false
}

// isConnectionError reports failures that mean the pool lost its server.
func isConnectionError(err error) bool {
	if errors.Is(err, domain.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, pgClassConnection) ||
			pgErr.Code == pgErrAdminShutdown || pgErr.Code == pgErrCrashShutdown
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
