package handler

import (
	"net/http"

	"tapandbuy/internal/model"
	"tapandbuy/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon checks and admin coupon management.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Eligible handles GET /api/coupons/eligible.
func (h *CouponHandler) Eligible(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	coupons, err := h.service.Eligible(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

// Validate handles POST /api/coupons/validate. Ineligible codes are a 200
// with valid=false and the reason in message.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	var req model.CouponValidateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.service.Validate(r.Context(), userID, req.Code)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// List handles GET /api/admin/coupons.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

// Create handles POST /api/admin/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c model.Coupon
	if !decodeJSON(w, r, &c, h.logger) {
		return
	}
	if err := h.service.Create(r.Context(), &c); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/admin/coupons/{id}.
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var c model.Coupon
	if !decodeJSON(w, r, &c, h.logger) {
		return
	}
	c.ID = id
	if err := h.service.Update(r.Context(), &c); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/admin/coupons/{id}.
func (h *CouponHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
