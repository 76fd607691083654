package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxBankNameLength      = 50
	MaxBranchAddressLength = 15
	MaxNotesLength         = 500
	MaxTransactionAmount   = "1000000000000" // 1 trillion
	MinTransactionAmount   = "0.01"
	AmountScale            = 2
)

var (
	minAmount = decimal.RequireFromString(MinTransactionAmount)
	maxAmount = decimal.RequireFromString(MaxTransactionAmount)
)

// ValidateBankName validates a bank name
func ValidateBankName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: bank name cannot be empty", ErrInvalidBankName)
	}

	if utf8.RuneCountInString(name) > MaxBankNameLength {
		return fmt.Errorf("%w: bank name exceeds %d characters", ErrInvalidBankName, MaxBankNameLength)
	}

	return nil
}

// ValidateBranchAddress validates a branch address
func ValidateBranchAddress(address string) error {
	address = strings.TrimSpace(address)

	if address == "" {
		return fmt.Errorf("%w: branch address is required", ErrInvalidBranchAddress)
	}

	if utf8.RuneCountInString(address) > MaxBranchAddressLength {
		return fmt.Errorf("%w: branch address cannot exceed %d characters", ErrInvalidBranchAddress, MaxBranchAddressLength)
	}

	return nil
}

// ValidateAmount validates a posting amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrAmountPrecision, AmountScale)
	}

	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransactionAmount)
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidateOpeningBalance allows zero, unlike ValidateAmount.
func ValidateOpeningBalance(balance decimal.Decimal) error {
	if balance.IsZero() {
		return nil
	}
	return ValidateAmount(balance)
}

// ValidateLimit clamps a listing limit
func ValidateLimit(limit int) int {
	const MaxPageSize = 1000
	const DefaultPageSize = 100

	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
