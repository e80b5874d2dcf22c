package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/artmarket/commission-service/internal/order"
)

// CreateOrderRequest tolerates the loose upstream feed formats: dates arrive
// as strings in several layouts with fallback field chains, and legacy price
// aliases are all accepted.
type CreateOrderRequest struct {
	ID          string  `json:"id,omitempty"`
	BuyerID     string  `json:"buyer_id" validate:"required"`
	ArtistID    string  `json:"artist_id" validate:"required"`
	ProductID   string  `json:"product_id,omitempty"`
	ServiceID   string  `json:"service_id,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	FinalPrice  float64 `json:"final_price" validate:"gte=0"`
	TotalPrice  float64 `json:"total_price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	Requirement string  `json:"requirement,omitempty"`

	CreateTime string `json:"create_time,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	OrderDate  string `json:"order_date,omitempty"`
	Deadline   string `json:"deadline,omitempty"`
	DueDate    string `json:"due_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	return details
}

type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Get("/artists/{id}/orders", h.handleListArtistOrders)
	router.Patch("/orders/{id}/status", h.handleUpdateStatus)
	router.Post("/orders/{id}/work-completed", h.handleMarkWorkCompleted)
	router.Post("/orders/{id}/complete", h.handleCompleteOrder)
	router.Post("/orders/{id}/refund", h.handleRefundOrder)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode create order request")
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

	now := time.Now().UTC()
	o := order.Order{
		ID:          req.ID,
		BuyerID:     req.BuyerID,
		ArtistID:    req.ArtistID,
		ProductID:   req.ProductID,
		ServiceID:   req.ServiceID,
		Price:       req.Price,
		FinalPrice:  req.FinalPrice,
		TotalPrice:  req.TotalPrice,
		Quantity:    req.Quantity,
		Requirement: req.Requirement,
		CreatedAt:   order.FirstTime(req.CreateTime, req.StartDate, req.OrderDate),
		Deadline:    order.DeadlineOrNow(now, req.Deadline, req.DueDate, req.EndDate),
	}

	created, err := h.svc.CreateOrder(r.Context(), &o)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	view, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		if !errors.Is(err, order.ErrOrderNotFound) {
			log.Error().Err(err).Str("order_id", id).Msg("Failed to get order via service")
		}
		respondWithError(w, mapErrorToStatusCode(err), "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *OrderHandler) handleListArtistOrders(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "id")
	if artistID == "" {
		respondWithError(w, http.StatusBadRequest, "artist id is required")
		return
	}

	views, err := h.svc.ListOrdersByArtist(r.Context(), artistID)
	if err != nil {
		log.Error().Err(err).Str("artist_id", artistID).Msg("Failed to list artist orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, views)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.svc.UpdateOrderStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *OrderHandler) handleMarkWorkCompleted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.MarkWorkCompleted(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(order.StatusWaitingConfirm)})
}

func (h *OrderHandler) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.svc.CompleteOrder(r.Context(), id)
	if err != nil {
		// A partial ledger write is retryable; surface it as such.
		log.Error().Err(err).Str("order_id", id).Msg("Failed to complete order via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to complete order")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleRefundOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.RefundOrder(r.Context(), id); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(order.StatusRefunded)})
}
