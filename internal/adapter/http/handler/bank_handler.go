package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// BankService defines the behavior needed by BankHandler.
type BankService interface {
	CreateBank(ctx context.Context, name string) (*domain.Bank, error)
	GetBank(ctx context.Context, code int64) (*domain.Bank, error)
	ListBanks(ctx context.Context) ([]*domain.Bank, error)
	RenameBank(ctx context.Context, code int64, name string) (*usecase.RenameResult, error)
	DeleteBank(ctx context.Context, code int64) (*usecase.DeleteResult, error)
}

// BankHandler handles bank-related HTTP requests.
type BankHandler struct {
	bankUC BankService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankUC BankService) *BankHandler {
	return &BankHandler{bankUC: bankUC}
}

// Create creates a new bank.
func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.BankRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	bank, err := h.bankUC.CreateBank(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"bank": dto.BankFromDomain(bank)})
}

// List lists all banks.
func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	banks, err := h.bankUC.ListBanks(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"banks": dto.BanksFromDomain(banks)})
}

// Get retrieves a bank by code.
func (h *BankHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	bank, err := h.bankUC.GetBank(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"bank": dto.BankFromDomain(bank)})
}

// Rename renames a bank and rewrites its account numbers.
func (h *BankHandler) Rename(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req dto.BankRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.bankUC.RenameBank(r.Context(), code, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"bank":               dto.BankFromDomain(result.Bank),
		"accounts_rewritten": result.AccountsRewritten,
	})
}

// Delete removes a bank with its branches and accounts.
func (h *BankHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.bankUC.DeleteBank(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"deleted": dto.DeleteFromResult(result)})
}
