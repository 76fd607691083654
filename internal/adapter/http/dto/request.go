package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/usecase"
)

// BankRequest creates or renames a bank.
type BankRequest struct {
	Name string `json:"bank_name" validate:"required,max=50"`
}

// BranchRequest creates or updates a branch.
type BranchRequest struct {
	Address       string `json:"branch_address" validate:"required,max=15"`
	BankCode      int64  `json:"bank_code"      validate:"required,gt=0"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	PhoneNo       string `json:"phone_no"       validate:"max=30"`
	FaxNo         string `json:"fax_no"         validate:"max=30"`
}

// ToUseCaseInput converts to use case input.
func (r *BranchRequest) ToUseCaseInput() usecase.BranchInput {
	return usecase.BranchInput{
		Address:       r.Address,
		BankCode:      r.BankCode,
		ContactPerson: r.ContactPerson,
		PhoneNo:       r.PhoneNo,
		FaxNo:         r.FaxNo,
	}
}

// CreateAccountRequest represents a request to create an account under a
// bank. OpeningBalance accepts a JSON number or a decimal string.
type CreateAccountRequest struct {
	BranchCode     int64           `json:"branch_code"     validate:"required,gt=0"`
	Prefix         string          `json:"prefix"          validate:"required"`
	AccountType    string          `json:"account_type"    validate:"max=50"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Active         *bool           `json:"active"`
}

// ToUseCaseInput converts to use case input. Accounts are active unless the
// request says otherwise.
func (r *CreateAccountRequest) ToUseCaseInput(bankCode int64) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		BankCode:       bankCode,
		BranchCode:     r.BranchCode,
		Prefix:         r.Prefix,
		AccountType:    r.AccountType,
		OpeningBalance: r.OpeningBalance,
		Active:         r.Active == nil || *r.Active,
	}
}

// UpdateAccountRequest represents a request to update an account. BankCode
// may come from the URL instead of the body; when neither carries one the
// branch decides the bank.
type UpdateAccountRequest struct {
	BankCode    int64  `json:"bank_code"    validate:"gte=0"`
	BranchCode  int64  `json:"branch_code"  validate:"required,gt=0"`
	Prefix      string `json:"prefix"       validate:"required"`
	AccountType string `json:"account_type" validate:"max=50"`
	Active      *bool  `json:"active"`
}

// ToUseCaseInput converts to use case input. A non-zero bankCode overrides
// the body.
func (r *UpdateAccountRequest) ToUseCaseInput(bankCode int64) usecase.UpdateAccountInput {
	if bankCode == 0 {
		bankCode = r.BankCode
	}
	return usecase.UpdateAccountInput{
		BankCode:    bankCode,
		BranchCode:  r.BranchCode,
		Prefix:      r.Prefix,
		AccountType: r.AccountType,
		Active:      r.Active == nil || *r.Active,
	}
}

// PostTransactionRequest represents a ledger posting. Amount accepts a JSON
// number or a decimal string. UserCode is honoured only when the request
// carries no authenticated user.
type PostTransactionRequest struct {
	AccountCode int64           `json:"account_code" validate:"required,gt=0"`
	BankCode    int64           `json:"bank_code"    validate:"gte=0"`
	BranchCode  int64           `json:"branch_code"  validate:"gte=0"`
	Particular  string          `json:"particular"   validate:"required"`
	Amount      decimal.Decimal `json:"amount"       validate:"required"`
	ExpenseCode *int64          `json:"expense_code"`
	Notes       string          `json:"notes"        validate:"max=500"`
	UserCode    int64           `json:"user_code"    validate:"gte=0"`
}

// ToUseCaseInput converts to use case input.
func (r *PostTransactionRequest) ToUseCaseInput() usecase.PostTransactionInput {
	return usecase.PostTransactionInput{
		AccountCode: r.AccountCode,
		BankCode:    r.BankCode,
		BranchCode:  r.BranchCode,
		Particular:  r.Particular,
		Amount:      r.Amount,
		ExpenseCode: r.ExpenseCode,
		Notes:       r.Notes,
	}
}
