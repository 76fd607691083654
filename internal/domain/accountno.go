package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAccountNoLength is the storage width of an account number.
const MaxAccountNoLength = 50

// BuildAccountNo composes the account number "prefix branchAddress bankName".
// Each part is trimmed and the parts are joined with single spaces.
func BuildAccountNo(prefix, branchAddress, bankName string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if err := ValidatePrefix(prefix); err != nil {
		return "", err
	}

	accountNo := prefix + " " + strings.TrimSpace(branchAddress) + " " + strings.TrimSpace(bankName)

	if n := utf8.RuneCountInString(accountNo); n > MaxAccountNoLength {
		return "", fmt.Errorf("%w: %q is %d characters, limit is %d", ErrAccountNoTooLong, accountNo, n, MaxAccountNoLength)
	}

	return accountNo, nil
}

// ExtractPrefix returns the part of an account number before the first space,
// or the whole string when there is no space.
func ExtractPrefix(accountNo string) string {
	prefix, _, _ := strings.Cut(accountNo, " ")
	return prefix
}

// ValidatePrefix checks that a prefix can round-trip through BuildAccountNo
// and ExtractPrefix.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: prefix cannot be empty", ErrInvalidPrefix)
	}

	if strings.IndexFunc(prefix, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: prefix %q must not contain whitespace", ErrInvalidPrefix, prefix)
	}

	return nil
}
