package handler

import (
	"net/http"

	"tapandbuy/internal/model"
	"tapandbuy/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// ListMine handles GET /api/orders.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListMine(r.Context(), userID, limit, offset)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetMine handles GET /api/orders/{id}.
func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetMine(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// RequestCancellation handles POST /api/orders/{id}/cancellation.
func (h *OrderHandler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.CancellationRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.RequestCancellation(r.Context(), userID, orderID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// RequestReturn handles POST /api/orders/{id}/returns.
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.ReturnCreateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	rr, err := h.service.RequestReturn(r.Context(), userID, orderID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, rr)
}

// ListMyReturns handles GET /api/returns.
func (h *OrderHandler) ListMyReturns(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	returns, err := h.service.ListMyReturns(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, returns)
}

// List handles GET /api/admin/orders?status=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}
	filter := model.OrderFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.OrderStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid status parameter", h.logger)
			return
		}
		filter.Status = &status
	}

	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/admin/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.StatusUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), orderID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// DecideCancellation handles POST /api/admin/orders/{id}/cancellation.
func (h *OrderHandler) DecideCancellation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.CancellationDecision
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.DecideCancellation(r.Context(), orderID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListReturns handles GET /api/admin/returns?status=.
func (h *OrderHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	var status *model.ReturnStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.ReturnStatus(raw)
		status = &s
	}
	returns, err := h.service.ListReturns(r.Context(), status)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, returns)
}

// ReviewReturn handles PUT /api/admin/returns/{id}.
func (h *OrderHandler) ReviewReturn(w http.ResponseWriter, r *http.Request) {
	returnID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.ReturnReview
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	rr, err := h.service.ReviewReturn(r.Context(), returnID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, rr)
}
