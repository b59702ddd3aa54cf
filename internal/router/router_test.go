package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tapandbuy/internal/auth"
	"tapandbuy/internal/handler"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires handlers without services; only requests rejected
// before reaching a service may be sent to it.
func newTestRouter(ping func(context.Context) error) (http.Handler, *auth.Verifier) {
	logger := zerolog.Nop()
	verifier := auth.NewVerifier("router-secret")
	h := Handlers{
		Products:      handler.NewProductHandler(nil, logger),
		Catalog:       handler.NewCatalogHandler(nil, logger),
		Cart:          handler.NewCartHandler(nil, nil, logger),
		Checkout:      handler.NewCheckoutHandler(nil, logger),
		Orders:        handler.NewOrderHandler(nil, logger),
		Coupons:       handler.NewCouponHandler(nil, logger),
		Addresses:     handler.NewAddressHandler(nil, logger),
		Notifications: handler.NewNotificationHandler(nil, logger),
	}
	return New(h, Options{Verifier: verifier, RequestTimeout: time.Second, Ping: ping}, logger), verifier
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name           string
		ping           func(context.Context) error
		expectedStatus int
	}{
		{"No ping", nil, http.StatusOK},
		{"Database up", func(context.Context) error { return nil }, http.StatusOK},
		{"Database down", func(context.Context) error { return errors.New("down") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(tt.ping)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_Auth(t *testing.T) {
	r, verifier := newTestRouter(nil)

	customer, err := verifier.Sign(auth.User{ID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{"Cart requires a token", http.MethodGet, "/api/cart", "", http.StatusUnauthorized},
		{"Orders require a token", http.MethodPost, "/api/orders", "", http.StatusUnauthorized},
		{"Notifications require a token", http.MethodGet, "/api/notifications/unread-count", "", http.StatusUnauthorized},
		{"Admin requires a token", http.MethodGet, "/api/admin/orders", "", http.StatusUnauthorized},
		{"Customer cannot use admin orders", http.MethodGet, "/api/admin/orders", customer, http.StatusForbidden},
		{"Customer cannot create products", http.MethodPost, "/api/admin/products", customer, http.StatusForbidden},
		{"Customer cannot review returns", http.MethodPut, "/api/admin/returns/" + uuid.NewString(), customer, http.StatusForbidden},
		{"Invalid product id", http.MethodGet, "/api/products/not-a-uuid", "", http.StatusBadRequest},
		{"Wrong method", http.MethodPatch, "/api/products", "", http.StatusMethodNotAllowed},
		{"Unknown route", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		{"Preflight", http.MethodOptions, "/api/orders", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
