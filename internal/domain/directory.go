package domain

// Particular is a chart-of-accounts entry. It names a transaction type and
// fixes its direction.
type Particular struct {
	ID           int64
	Code         string
	Name         string
	Credit       bool
	FundTransfer bool
}

// Direction returns the direction postings of this type take.
func (p *Particular) Direction() Direction {
	if p.Credit {
		return DirectionCredit
	}
	return DirectionDebit
}

// ExpenseCategory classifies debit postings.
type ExpenseCategory struct {
	Code   int64
	Name   string
	Active bool
}

// ActingUser is the authenticated principal performing a write.
type ActingUser struct {
	Code int64
}
