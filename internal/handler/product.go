package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/artmarket/commission-service/internal/inventory"
)

// UpsertProductRequest carries the catalog feed shape. Stock keeps the legacy
// convention where 0 means untracked inventory; it is converted to the
// explicit nullable form here, before the product enters the core.
type UpsertProductRequest struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required,min=1"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type ProductHandler struct {
	svc      inventory.Service
	validate *validator.Validate
}

func NewProductHandler(svc inventory.Service) *ProductHandler {
	return &ProductHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Put("/products", h.handleUpsertProduct)
	router.Get("/products/{id}", h.handleGetProduct)
}

func (h *ProductHandler) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	var req UpsertProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode upsert product request")
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
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	p := inventory.Product{
		ID:    req.ID,
		Name:  req.Name,
		Stock: inventory.NormalizeStock(req.Stock),
	}

	if err := h.svc.SaveProduct(r.Context(), &p); err != nil {
		log.Error().Err(err).Str("product_id", req.ID).Msg("Failed to save product via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to save product")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		if !errors.Is(err, inventory.ErrProductNotFound) {
			log.Error().Err(err).Str("product_id", id).Msg("Failed to get product via service")
		}
		respondWithError(w, mapErrorToStatusCode(err), "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
