package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single unit of work, retries included.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultParticularCacheTTL is how long particular lookups are cached.
	DefaultParticularCacheTTL = 5 * time.Minute

	particularCacheKeyPrefix = "particular:"

	triggerBankRename   = "bank_rename"
	triggerBranchUpdate = "branch_update"
)
