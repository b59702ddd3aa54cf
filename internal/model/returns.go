package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnStatus is the review state of a return request.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRejected ReturnStatus = "rejected"
	ReturnStatusRefunded ReturnStatus = "refunded"
)

// ReturnRequest records a customer asking to send back a delivered order.
type ReturnRequest struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	OrderID      uuid.UUID        `json:"orderId" db:"order_id"`
	UserID       uuid.UUID        `json:"userId" db:"user_id"`
	Reason       string           `json:"reason" db:"reason"`
	Status       ReturnStatus     `json:"status" db:"status"`
	AdminNotes   string           `json:"adminNotes,omitempty" db:"admin_notes"`
	RefundAmount *decimal.Decimal `json:"refundAmount,omitempty" db:"refund_amount"`
	Version      int              `json:"version" db:"version"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// ReturnCreateRequest is the customer payload for a return.
type ReturnCreateRequest struct {
	Reason string `json:"reason"`
}

// ReturnReview is the admin payload for moving a return request forward.
type ReturnReview struct {
	Status          ReturnStatus     `json:"status"`
	AdminNotes      string           `json:"adminNotes,omitempty"`
	RefundAmount    *decimal.Decimal `json:"refundAmount,omitempty"`
	ExpectedVersion *int             `json:"expectedVersion,omitempty"`
}
