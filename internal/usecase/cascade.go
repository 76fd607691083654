package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// accountNoRewriter recomputes the account numbers of locked accounts after a
// bank or branch rename. It runs inside the caller's transaction.
type accountNoRewriter struct {
	accountRepo AccountRepository
	guard       *UniquenessGuard
}

// rewrite expects accounts to be locked and to carry the post-rename branch
// address and bank name. It returns how many rows actually changed.
func (c *accountNoRewriter) rewrite(ctx context.Context, tx Transaction, accounts []*domain.Account, now time.Time) (int, error) {
	if len(accounts) == 0 {
		return 0, nil
	}

	accountNos := make([]string, len(accounts))
	codes := make([]int64, len(accounts))

	for i, acc := range accounts {
		accountNo, err := acc.ComposeAccountNo()
		if err != nil {
			return 0, fmt.Errorf("account %d: %w", acc.Code, err)
		}
		accountNos[i] = accountNo
		codes[i] = acc.Code
	}

	if err := c.guard.CheckBatch(ctx, tx, accountNos, codes); err != nil {
		return 0, err
	}

	rewritten := 0
	for i, acc := range accounts {
		prefix := acc.ResolvePrefix()
		if accountNos[i] == acc.AccountNo && prefix == acc.Prefix {
			continue
		}

		if err := c.accountRepo.UpdateAccountNo(ctx, tx, acc.Code, prefix, accountNos[i], now); err != nil {
			return 0, fmt.Errorf("account %d: %w", acc.Code, err)
		}

		zerolog.Ctx(ctx).Debug().
			Int64("account_code", acc.Code).
			Str("from", acc.AccountNo).
			Str("to", accountNos[i]).
			Msg("account number rewritten")

		acc.AccountNo = accountNos[i]
		acc.Prefix = prefix
		acc.UpdatedAt = now
		rewritten++
	}

	return rewritten, nil
}
