package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/artmarket/commission-service/internal/ledger"
)

type LedgerHandler struct {
	svc ledger.Service
}

func NewLedgerHandler(svc ledger.Service) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

func (h *LedgerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/ledger", h.handleListByRecipient)
	router.Get("/orders/{id}/ledger", h.handleListByOrder)
}

// handleListByRecipient returns raw entries; summation and currency
// formatting belong to the withdrawal collaborator.
func (h *LedgerHandler) handleListByRecipient(w http.ResponseWriter, r *http.Request) {
	recipientID := r.URL.Query().Get("user_id")
	if recipientID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	incomeType := ledger.IncomeType(r.URL.Query().Get("income_type"))

	entries, err := h.svc.ListByRecipient(r.Context(), recipientID, incomeType)
	if err != nil {
		log.Error().Err(err).Str("recipient_id", recipientID).Msg("Failed to list ledger entries via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list ledger entries")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *LedgerHandler) handleListByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	entries, err := h.svc.ListByOrder(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Failed to list order ledger entries via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list ledger entries")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}
