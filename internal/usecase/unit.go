package usecase

import "context"

// runUnit retries op under a deadline of DefaultTransactionTimeout. A caller
// deadline that ends sooner still applies.
func runUnit(ctx context.Context, retrier Retrier, op func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	return retrier.Retry(ctx, func() error { return op(ctx) })
}
