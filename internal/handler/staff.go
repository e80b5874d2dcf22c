package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/artmarket/commission-service/internal/staff"
)

type UpsertStaffRequest struct {
	ID          string  `json:"id,omitempty"`
	UserID      string  `json:"user_id" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1"`
	RoleType    string  `json:"role_type"`
	IsActive    bool    `json:"is_active"`
	EnableShare bool    `json:"enable_share"`
	ShareAmount float64 `json:"share_amount" validate:"gte=0"`
}

type StaffHandler struct {
	svc      staff.Service
	validate *validator.Validate
}

func NewStaffHandler(svc staff.Service) *StaffHandler {
	return &StaffHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *StaffHandler) RegisterRoutes(router chi.Router) {
	router.Put("/staff", h.handleUpsertStaff)
	router.Get("/staff", h.handleListStaff)
	router.Get("/staff/eligible", h.handleListEligible)
	router.Get("/staff/{id}", h.handleGetStaff)
	router.Delete("/staff/{id}", h.handleRemoveStaff)
}

func (h *StaffHandler) handleUpsertStaff(w http.ResponseWriter, r *http.Request) {
	var req UpsertStaffRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	m := staff.Member{
		ID:          req.ID,
		UserID:      req.UserID,
		Name:        req.Name,
		RoleType:    req.RoleType,
		IsActive:    req.IsActive,
		EnableShare: req.EnableShare,
		ShareAmount: req.ShareAmount,
	}

	saved, err := h.svc.Upsert(r.Context(), &m)
	if err != nil {
		if errors.Is(err, staff.ErrUserIDBound) {
			respondWithError(w, http.StatusConflict, "User is already bound to another staff member")
			return
		}
		log.Error().Err(err).Msg("Failed to upsert staff member via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to save staff member")
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

func (h *StaffHandler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListStaff(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list staff via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list staff")
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

func (h *StaffHandler) handleListEligible(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListEligibleStaff(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list eligible staff via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list eligible staff")
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

func (h *StaffHandler) handleGetStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.svc.GetStaff(r.Context(), id)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to get staff member")
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

func (h *StaffHandler) handleRemoveStaff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Remove(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to remove staff member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
