package handler

import (
	"errors"
	"net/http"

	"tapandbuy/internal/model"
	"tapandbuy/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles the caller's cart. The summary is priced by the
// checkout service so both screens agree.
type CartHandler struct {
	cart     service.CartService
	checkout service.CheckoutService
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart service.CartService, checkout service.CheckoutService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		checkout: checkout,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

// List handles GET /api/cart.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	items, err := h.cart.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Add handles POST /api/cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.CartAddRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if err := h.cart.Add(r.Context(), userID, req); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Update handles PUT /api/cart/{productID}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID", h.logger)
	if !ok {
		return
	}
	var req model.CartUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if err := h.cart.SetQuantity(r.Context(), userID, productID, req.Quantity); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/cart/{productID}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID", h.logger)
	if !ok {
		return
	}
	if err := h.cart.Remove(r.Context(), userID, productID); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.cart.Clear(r.Context(), userID); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles POST /api/cart/summary.
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.QuoteRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.Device = withDeviceHeader(r, req.Device)

	result, err := h.checkout.Quote(r.Context(), userID, req)
	if errors.Is(err, model.ErrEmptyCart) {
		writeJSON(w, http.StatusOK, service.EmptyCartQuote())
		return
	}
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
