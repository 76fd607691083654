package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	UpdateAccount(ctx context.Context, code int64, input usecase.UpdateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, code int64) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	DeleteAccount(ctx context.Context, code int64) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account under the bank in the URL.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	bankCode, err := pathCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req dto.CreateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(bankCode))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"account": dto.AccountFromDomain(account)})
}

// Update updates an account. The bank comes from the URL when the route
// carries one, otherwise from the body.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "accountCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var bankCode int64
	if chi.URLParam(r, "bankCode") != "" {
		if bankCode, err = pathCode(r, "bankCode"); err != nil {
			respondError(w, r, err)
			return
		}
	}

	var req dto.UpdateAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	account, err := h.accountUC.UpdateAccount(r.Context(), code, req.ToUseCaseInput(bankCode))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"account": dto.AccountFromDomain(account)})
}

// Get retrieves an account by code.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "accountCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"account": dto.AccountFromDomain(account)})
}

// ListByBank lists the accounts of the bank in the URL.
func (h *AccountHandler) ListByBank(w http.ResponseWriter, r *http.Request) {
	bankCode, err := pathCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.list(w, r, usecase.ListAccountsInput{BankCode: bankCode})
}

// List lists accounts by the branchCode or bankCode query parameter.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	branchCode, err := queryCode(r, "branchCode")
	if err != nil {
		respondError(w, r, err)
		return
	}
	bankCode, err := queryCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.list(w, r, usecase.ListAccountsInput{BankCode: bankCode, BranchCode: branchCode})
}

func (h *AccountHandler) list(w http.ResponseWriter, r *http.Request, input usecase.ListAccountsInput) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"accounts": dto.AccountsFromDomain(accounts),
		"total":    len(accounts),
	})
}

// Delete deletes an account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "accountCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.accountUC.DeleteAccount(r.Context(), code); err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"account_code": code})
}
