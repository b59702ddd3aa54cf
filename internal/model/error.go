package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeUnauthorised           = "UNAUTHORIZED"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeProductNotFound        = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeCouponNotFound         = "COUPON_NOT_FOUND"
	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeInsufficientStock      = "INSUFFICIENT_STOCK"
	ErrCodeEmptyCart              = "EMPTY_CART"
	ErrCodeCouponIneligible       = "COUPON_INELIGIBLE"
	ErrCodeIllegalTransition      = "ILLEGAL_TRANSITION"
	ErrCodeConcurrentUpdate       = "CONCURRENT_UPDATE"
	ErrCodeCancellationNotAllowed = "CANCELLATION_NOT_ALLOWED"
	ErrCodeReturnNotAllowed       = "RETURN_NOT_ALLOWED"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeTimeout                = "TIMEOUT"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure carrying a stable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that errors built with
// NewDomainError for a specific message still match the package sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ValidationError builds a VALIDATION_ERROR with a field-specific message.
func ValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// Common domain errors
var (
	ErrValidation             = NewDomainError(ErrCodeValidation, "Invalid input")
	ErrUnauthorised           = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden              = NewDomainError(ErrCodeForbidden, "Access denied")
	ErrNotFound               = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrProductNotFound        = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound          = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrCouponNotFound         = NewDomainError(ErrCodeCouponNotFound, "Coupon not found")
	ErrInvalidQuantity        = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInsufficientStock      = NewDomainError(ErrCodeInsufficientStock, "Not enough stock for one or more products")
	ErrEmptyCart              = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrCouponIneligible       = NewDomainError(ErrCodeCouponIneligible, "Coupon cannot be applied to this order")
	ErrIllegalTransition      = NewDomainError(ErrCodeIllegalTransition, "Order status change is not allowed")
	ErrConcurrentUpdate       = NewDomainError(ErrCodeConcurrentUpdate, "The record was modified by someone else, reload and retry")
	ErrCancellationNotAllowed = NewDomainError(ErrCodeCancellationNotAllowed, "Order can no longer be cancelled")
	ErrReturnNotAllowed       = NewDomainError(ErrCodeReturnNotAllowed, "Order is not eligible for return")
	ErrConflict               = NewDomainError(ErrCodeConflict, "Resource already exists")
)

// CodeOf returns the domain code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}
