package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/adapter/http/middleware"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// LedgerService defines the behavior needed by TransactionHandler.
type LedgerService interface {
	PostTransaction(ctx context.Context, input usecase.PostTransactionInput, user domain.ActingUser) (*usecase.PostTransactionResult, error)
	ListTransactions(ctx context.Context, filter domain.EntryFilter) ([]*domain.EntryView, error)
	TransactionYears(ctx context.Context) ([]int, error)
	ListParticulars(ctx context.Context) ([]*domain.Particular, error)
	ListExpenses(ctx context.Context) ([]*domain.ExpenseCategory, error)
}

// TransactionHandler handles ledger postings and reads.
type TransactionHandler struct {
	ledgerUC LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerUC LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerUC: ledgerUC}
}

// Post applies a transaction to an account on behalf of the token's user.
func (h *TransactionHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	input := req.ToUseCaseInput()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		user = domain.ActingUser{Code: req.UserCode}
	}

	result, err := h.ledgerUC.PostTransaction(r.Context(), input, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"transaction": dto.PostTransactionFromResult(result)})
}

// List returns ledger entries filtered by startDate, endDate, accountCode
// and limit.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate")
	if err != nil {
		respondError(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		respondError(w, r, err)
		return
	}
	accountCode, err := queryCode(r, "accountCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, err := h.ledgerUC.ListTransactions(r.Context(), domain.EntryFilter{
		StartDate:   start,
		EndDate:     end,
		AccountCode: accountCode,
		Limit:       parseIntQuery(r, "limit", 0),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"transactions": dto.TransactionsFromDomain(views),
		"total":        len(views),
	})
}

// Years returns the years that have ledger entries.
func (h *TransactionHandler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.ledgerUC.TransactionYears(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if years == nil {
		years = []int{}
	}

	writeSuccess(w, http.StatusOK, envelope{"years": years})
}

// Particulars returns the transaction types.
func (h *TransactionHandler) Particulars(w http.ResponseWriter, r *http.Request) {
	particulars, err := h.ledgerUC.ListParticulars(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"particulars": dto.ParticularsFromDomain(particulars)})
}

// Expenses returns the expense categories.
func (h *TransactionHandler) Expenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.ledgerUC.ListExpenses(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"expenses": dto.ExpensesFromDomain(expenses)})
}

