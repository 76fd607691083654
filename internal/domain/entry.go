package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a posting.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Entry is an immutable ledger row. Exactly one of Debit and Credit is set.
type Entry struct {
	ID           int64
	Reference    string
	AccountCode  int64
	ParticularID int64
	ExpenseCode  *int64
	UserCode     int64
	Debit        decimal.NullDecimal
	Credit       decimal.NullDecimal
	Notes        string
	CreatedAt    time.Time
}

// NewEntry builds an entry carrying amount on the side given by direction.
func NewEntry(direction Direction, amount decimal.Decimal) *Entry {
	e := &Entry{}
	if direction == DirectionCredit {
		e.Credit = decimal.NewNullDecimal(amount)
	} else {
		e.Debit = decimal.NewNullDecimal(amount)
	}
	return e
}

// Validate checks the debit/credit exclusivity.
func (e *Entry) Validate() error {
	if e.Debit.Valid == e.Credit.Valid {
		return ErrInvalidEntry
	}
	return nil
}

// Direction reports which side the entry is on.
func (e *Entry) Direction() Direction {
	if e.Credit.Valid {
		return DirectionCredit
	}
	return DirectionDebit
}

// Amount returns the populated side.
func (e *Entry) Amount() decimal.Decimal {
	if e.Credit.Valid {
		return e.Credit.Decimal
	}
	return e.Debit.Decimal
}

// Date returns the calendar date of the entry as YYYY-MM-DD.
func (e *Entry) Date() string {
	return e.CreatedAt.Format(time.DateOnly)
}

// EntryView is an entry joined with display names for listing.
type EntryView struct {
	Entry
	AccountNo     string
	Particular    string
	ExpenseName   string
	BranchAddress string
	BankName      string
}

// EntryFilter restricts a ledger listing.
type EntryFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	AccountCode int64
	Limit       int
}
