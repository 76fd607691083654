package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/usecase"
)

// BranchService defines the behavior needed by BranchHandler.
type BranchService interface {
	CreateBranch(ctx context.Context, input usecase.BranchInput) (*domain.Branch, error)
	GetBranch(ctx context.Context, code int64) (*domain.Branch, error)
	ListBranches(ctx context.Context, bankCode int64) ([]*domain.Branch, error)
	UpdateBranch(ctx context.Context, code int64, input usecase.BranchInput) (*usecase.RenameResult, error)
	DeleteBranch(ctx context.Context, code int64) (*usecase.DeleteResult, error)
}

// BranchHandler handles branch-related HTTP requests.
type BranchHandler struct {
	branchUC BranchService
}

// NewBranchHandler creates a new BranchHandler.
func NewBranchHandler(branchUC BranchService) *BranchHandler {
	return &BranchHandler{branchUC: branchUC}
}

// Create creates a new branch.
func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.BranchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	branch, err := h.branchUC.CreateBranch(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"branch": dto.BranchFromDomain(branch)})
}

// List lists branches, filtered by the bankCode query parameter when given.
func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	bankCode, err := queryCode(r, "bankCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	branches, err := h.branchUC.ListBranches(r.Context(), bankCode)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"branches": dto.BranchesFromDomain(branches)})
}

// Get retrieves a branch by code.
func (h *BranchHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "branchCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	branch, err := h.branchUC.GetBranch(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"branch": dto.BranchFromDomain(branch)})
}

// Update updates a branch and rewrites the account numbers held there.
func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "branchCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req dto.BranchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.branchUC.UpdateBranch(r.Context(), code, req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"branch":             dto.BranchFromDomain(result.Branch),
		"accounts_rewritten": result.AccountsRewritten,
	})
}

// Delete removes a branch and its accounts.
func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r, "branchCode")
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.branchUC.DeleteBranch(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"deleted": dto.DeleteFromResult(result)})
}
