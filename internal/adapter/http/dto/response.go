package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

// BankResponse represents a bank in API responses.
type BankResponse struct {
	Code int64  `json:"bank_code"`
	Name string `json:"bank_name"`
}

// BankFromDomain converts a domain bank to a response.
func BankFromDomain(b *domain.Bank) *BankResponse {
	return &BankResponse{Code: b.Code, Name: b.Name}
}

// BanksFromDomain converts domain banks to responses.
func BanksFromDomain(banks []*domain.Bank) []*BankResponse {
	result := make([]*BankResponse, len(banks))
	for i, b := range banks {
		result[i] = BankFromDomain(b)
	}
	return result
}

// BranchResponse represents a branch in API responses.
type BranchResponse struct {
	Code          int64  `json:"branch_code"`
	Address       string `json:"branch_address"`
	BankCode      int64  `json:"bank_code"`
	BankName      string `json:"bank_name"`
	ContactPerson string `json:"contact_person"`
	PhoneNo       string `json:"phone_no"`
	FaxNo         string `json:"fax_no,omitempty"`
}

// BranchFromDomain converts a domain branch to a response.
func BranchFromDomain(b *domain.Branch) *BranchResponse {
	return &BranchResponse{
		Code:          b.Code,
		Address:       b.Address,
		BankCode:      b.BankCode,
		BankName:      b.BankName,
		ContactPerson: b.ContactPerson,
		PhoneNo:       b.PhoneNo,
		FaxNo:         b.FaxNo,
	}
}

// BranchesFromDomain converts domain branches to responses.
func BranchesFromDomain(branches []*domain.Branch) []*BranchResponse {
	result := make([]*BranchResponse, len(branches))
	for i, b := range branches {
		result[i] = BranchFromDomain(b)
	}
	return result
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Code           int64     `json:"account_code"`
	AccountNo      string    `json:"account_no"`
	Prefix         string    `json:"prefix"`
	AccountType    string    `json:"account_type"`
	CashInBank     string    `json:"cash_in_bank"`
	OpeningBalance string    `json:"opening_balance"`
	Active         bool      `json:"active"`
	BranchCode     int64     `json:"branch_code"`
	BranchAddress  string    `json:"branch_address"`
	BankCode       int64     `json:"bank_code"`
	BankName       string    `json:"bank_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		Code:           a.Code,
		AccountNo:      a.AccountNo,
		Prefix:         a.ResolvePrefix(),
		AccountType:    a.AccountType,
		CashInBank:     money(a.Balance),
		OpeningBalance: money(a.OpeningBalance),
		Active:         a.Active,
		BranchCode:     a.BranchCode,
		BranchAddress:  a.BranchAddress,
		BankCode:       a.BankCode,
		BankName:       a.BankName,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// PostTransactionResponse is the outcome of a ledger posting.
type PostTransactionResponse struct {
	Reference        string    `json:"reference"`
	AccountCode      int64     `json:"account_code"`
	Direction        string    `json:"direction"`
	Amount           string    `json:"amount"`
	RemainingBalance string    `json:"remaining_balance"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Timestamp        time.Time `json:"timestamp"`
}

// PostTransactionFromResult converts a posting result to a response. Date
// and time are both derived from the single commit timestamp.
func PostTransactionFromResult(r *usecase.PostTransactionResult) *PostTransactionResponse {
	return &PostTransactionResponse{
		Reference:        r.Entry.Reference,
		AccountCode:      r.Entry.AccountCode,
		Direction:        string(r.Entry.Direction()),
		Amount:           money(r.Entry.Amount()),
		RemainingBalance: money(r.NewBalance),
		Date:             r.Timestamp.Format(time.DateOnly),
		Time:             r.Timestamp.Format(time.TimeOnly),
		Timestamp:        r.Timestamp,
	}
}

// TransactionResponse represents a ledger entry in listings.
type TransactionResponse struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	AccountCode   int64     `json:"account_code"`
	AccountNo     string    `json:"account_no"`
	Particular    string    `json:"particular"`
	ExpenseCode   *int64    `json:"expense_code,omitempty"`
	ExpenseName   string    `json:"expense_name,omitempty"`
	Debit         *string   `json:"debit"`
	Credit        *string   `json:"credit"`
	Notes         string    `json:"notes,omitempty"`
	UserCode      int64     `json:"user_code"`
	BranchAddress string    `json:"branch_address"`
	BankName      string    `json:"bank_name"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionFromDomain converts a ledger entry view to a response.
func TransactionFromDomain(v *domain.EntryView) *TransactionResponse {
	return &TransactionResponse{
		ID:            v.ID,
		Reference:     v.Reference,
		AccountCode:   v.AccountCode,
		AccountNo:     v.AccountNo,
		Particular:    v.Particular,
		ExpenseCode:   v.ExpenseCode,
		ExpenseName:   v.ExpenseName,
		Debit:         nullMoney(v.Debit),
		Credit:        nullMoney(v.Credit),
		Notes:         v.Notes,
		UserCode:      v.UserCode,
		BranchAddress: v.BranchAddress,
		BankName:      v.BankName,
		Date:          v.Date(),
		CreatedAt:     v.CreatedAt,
	}
}

// TransactionsFromDomain converts ledger entry views to responses.
func TransactionsFromDomain(views []*domain.EntryView) []*TransactionResponse {
	result := make([]*TransactionResponse, len(views))
	for i, v := range views {
		result[i] = TransactionFromDomain(v)
	}
	return result
}

// ParticularResponse represents a transaction type.
type ParticularResponse struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Particular   string `json:"particular"`
	Credit       bool   `json:"credit"`
	FundTransfer bool   `json:"fund_transfer"`
}

// ParticularsFromDomain converts transaction types to responses.
func ParticularsFromDomain(particulars []*domain.Particular) []*ParticularResponse {
	result := make([]*ParticularResponse, len(particulars))
	for i, p := range particulars {
		result[i] = &ParticularResponse{
			ID:           p.ID,
			Code:         p.Code,
			Particular:   p.Name,
			Credit:       p.Credit,
			FundTransfer: p.FundTransfer,
		}
	}
	return result
}

// ExpenseResponse represents an expense category.
type ExpenseResponse struct {
	Code   int64  `json:"expense_code"`
	Name   string `json:"expenses"`
	Active bool   `json:"active"`
}

// ExpensesFromDomain converts expense categories to responses.
func ExpensesFromDomain(expenses []*domain.ExpenseCategory) []*ExpenseResponse {
	result := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		result[i] = &ExpenseResponse{Code: e.Code, Name: e.Name, Active: e.Active}
	}
	return result
}

// DeleteResponse reports what a cascading delete removed.
type DeleteResponse struct {
	AccountsDeleted int64 `json:"accounts_deleted"`
	BranchesDeleted int64 `json:"branches_deleted"`
}

// DeleteFromResult converts a delete result to a response.
func DeleteFromResult(r *usecase.DeleteResult) *DeleteResponse {
	return &DeleteResponse{AccountsDeleted: r.AccountsDeleted, BranchesDeleted: r.BranchesDeleted}
}

// DiscrepancyResponse is one account whose cached balance drifted.
type DiscrepancyResponse struct {
	AccountCode       int64  `json:"account_code"`
	AccountNo         string `json:"account_no"`
	RecordedBalance   string `json:"recorded_balance"`
	CalculatedBalance string `json:"calculated_balance"`
	Difference        string `json:"difference"`
}

// ReconciliationResponse represents a consistency report.
type ReconciliationResponse struct {
	Consistent         bool                   `json:"consistent"`
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromReport converts a report to a response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			AccountCode:       d.AccountCode,
			AccountNo:         d.AccountNo,
			RecordedBalance:   money(d.RecordedBalance),
			CalculatedBalance: money(d.CalculatedBalance),
			Difference:        money(d.Difference),
		}
	}

	return &ReconciliationResponse{
		Consistent:         r.Consistent,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}
