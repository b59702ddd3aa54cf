package handler

import (
	"net/http"

	"tapandbuy/internal/model"
	"tapandbuy/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler quotes and places orders.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Quote handles POST /api/checkout/quote.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.QuoteRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.Device = withDeviceHeader(r, req.Device)

	result, err := h.service.Quote(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PlaceOrder handles POST /api/orders.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.PlaceOrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.Device = withDeviceHeader(r, req.Device)

	order, err := h.service.PlaceOrder(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
