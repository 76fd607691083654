package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a cash account held at a bank branch. AccountNo is always
// derived from Prefix, BranchAddress and BankName.
type Account struct {
	Code           int64
	AccountNo      string
	Prefix         string
	AccountType    string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Active         bool
	BranchCode     int64
	BankCode       int64
	BranchAddress  string
	BankName       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResolvePrefix returns the stored prefix. Rows written before the prefix
// column existed fall back to parsing the account number.
func (a *Account) ResolvePrefix() string {
	if a.Prefix != "" {
		return a.Prefix
	}
	return ExtractPrefix(a.AccountNo)
}

// ComposeAccountNo rebuilds the account number from the current names.
func (a *Account) ComposeAccountNo() (string, error) {
	return BuildAccountNo(a.ResolvePrefix(), a.BranchAddress, a.BankName)
}

// ValidateDebit checks that the balance covers amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, a.Balance.StringFixed(2), amount.StringFixed(2))
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// BalanceSnapshot holds the figures needed to reconcile one account.
type BalanceSnapshot struct {
	AccountCode    int64
	AccountNo      string
	OpeningBalance decimal.Decimal
	CashInBank     decimal.Decimal
	TotalCredits   decimal.Decimal
	TotalDebits    decimal.Decimal
}

// Expected returns opening + credits - debits.
func (s *BalanceSnapshot) Expected() decimal.Decimal {
	return s.OpeningBalance.Add(s.TotalCredits).Sub(s.TotalDebits)
}
