package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/adapter/http/dto"
	"github.com/iho/cashbook/internal/usecase"
)

// ReconciliationService defines the behavior needed by LedgerHandler.
type ReconciliationService interface {
	CheckConsistency(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	reconciliationUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliationUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{reconciliationUC: reconciliationUC}
}

// CheckConsistency reports whether every cached balance matches the ledger.
// Drift answers 409 with the full report in the body.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckConsistency(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !report.Consistent {
		zerolog.Ctx(r.Context()).Warn().
			Int("discrepancies", len(report.Discrepancies)).
			Msg("ledger inconsistent")
		writeJSON(w, http.StatusConflict, envelope{
			"status":  dto.StatusError,
			"message": "ledger is inconsistent",
			"report":  dto.ReconciliationFromReport(report),
		})
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"report": dto.ReconciliationFromReport(report)})
}
