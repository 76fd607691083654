package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/iho/cashbook/internal/domain"
)

// UniquenessGuard enforces that no two accounts share an account number.
// The scope is global and the comparison exact.
type UniquenessGuard struct {
	accountRepo AccountRepository
}

// NewUniquenessGuard creates a new UniquenessGuard.
func NewUniquenessGuard(accountRepo AccountRepository) *UniquenessGuard {
	return &UniquenessGuard{accountRepo: accountRepo}
}

// CheckAvailable fails with domain.ErrDuplicateAccountNo when accountNo is
// held by an account other than excludeCode. Pass 0 on create.
func (g *UniquenessGuard) CheckAvailable(ctx context.Context, tx Transaction, accountNo string, excludeCode int64) error {
	exists, err := g.accountRepo.ExistsByAccountNo(ctx, tx, accountNo, excludeCode)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateAccountNo, accountNo)
	}

	return nil
}

// CheckBatch validates a set of recomputed account numbers belonging to the
// accounts in excludeCodes: they must be distinct from each other and from
// every account outside the batch.
func (g *UniquenessGuard) CheckBatch(ctx context.Context, tx Transaction, accountNos []string, excludeCodes []int64) error {
	if len(accountNos) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(accountNos))
	for _, no := range accountNos {
		if _, dup := seen[no]; dup {
			return fmt.Errorf("%w: %q would be assigned twice", domain.ErrDuplicateAccountNo, no)
		}
		seen[no] = struct{}{}
	}

	conflicts, err := g.accountRepo.FindAccountNoConflicts(ctx, tx, accountNos, excludeCodes)
	if err != nil {
		return err
	}

	if len(conflicts) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNo, strings.Join(conflicts, ", "))
	}

	return nil
}
