// Package lifecycle holds the order status state machine together with the
// cancellation-request and return-request workflows layered on top of it.
//
// Functions here mutate the in-memory records they are given and return a
// domain error when a guard fails; persistence is the caller's job.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"tapandbuy/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// ReturnWindow is how long after delivery a return may be requested.
	ReturnWindow = 12 * time.Hour

	// MinCancellationReasonLength is the shortest accepted free-text reason.
	MinCancellationReasonLength = 10
)

// MinReturnOrderTotal is the smallest order total eligible for returns.
var MinReturnOrderTotal = decimal.NewFromInt(200)

var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to model.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from model.OrderStatus) []model.OrderStatus {
	return append([]model.OrderStatus(nil), transitions[from]...)
}

// AdvanceStatus moves the order to a new status, recording tracking info.
// Entering delivered stamps DeliveredAt. Cancelling through this path clears
// any pending cancellation request.
func AdvanceStatus(o *model.Order, to model.OrderStatus, trackingInfo string, now time.Time) error {
	if !to.Valid() {
		return model.ValidationError(fmt.Sprintf("unknown order status %q", to))
	}
	if !CanTransition(o.Status, to) {
		return model.NewDomainError(model.ErrCodeIllegalTransition,
			fmt.Sprintf("cannot move order from %s to %s", o.Status, to))
	}

	o.Status = to
	if trackingInfo = strings.TrimSpace(trackingInfo); trackingInfo != "" {
		o.TrackingInfo = trackingInfo
	}
	switch to {
	case model.OrderStatusDelivered:
		delivered := now
		o.DeliveredAt = &delivered
	case model.OrderStatusCancelled:
		o.CancellationRequested = false
	}
	o.UpdatedAt = now

	return nil
}

// CanRequestCancellation reports whether the customer may still ask to cancel.
func CanRequestCancellation(o *model.Order) bool {
	if o.CancellationRequested {
		return false
	}
	return o.Status == model.OrderStatusPending || o.Status == model.OrderStatusProcessing
}

// RequestCancellation flags the order as awaiting an admin decision. The
// status is left unchanged.
func RequestCancellation(o *model.Order, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < MinCancellationReasonLength {
		return model.ValidationError(fmt.Sprintf("cancellation reason must be at least %d characters", MinCancellationReasonLength))
	}
	if !CanRequestCancellation(o) {
		return model.ErrCancellationNotAllowed
	}

	o.CancellationRequested = true
	o.CancellationReason = reason
	o.UpdatedAt = now

	return nil
}

// ApproveCancellation cancels an order with a pending request.
func ApproveCancellation(o *model.Order, now time.Time) error {
	if !o.CancellationRequested {
		return model.NewDomainError(model.ErrCodeIllegalTransition, "order has no pending cancellation request")
	}
	if !CanTransition(o.Status, model.OrderStatusCancelled) {
		return model.NewDomainError(model.ErrCodeIllegalTransition,
			fmt.Sprintf("cannot cancel an order that is %s", o.Status))
	}

	o.Status = model.OrderStatusCancelled
	o.CancellationRequested = false
	o.UpdatedAt = now

	return nil
}

// RejectCancellation clears a pending request and keeps the current status.
func RejectCancellation(o *model.Order, now time.Time) error {
	if !o.CancellationRequested {
		return model.NewDomainError(model.ErrCodeIllegalTransition, "order has no pending cancellation request")
	}

	o.CancellationRequested = false
	o.CancellationReason = ""
	o.UpdatedAt = now

	return nil
}

// CheckReturnEligibility returns nil when a return may be requested now.
// A request at exactly ReturnWindow after delivery is too late.
func CheckReturnEligibility(o *model.Order, now time.Time) error {
	if o.Status != model.OrderStatusDelivered {
		return model.NewDomainError(model.ErrCodeReturnNotAllowed, "only delivered orders can be returned")
	}
	if o.Total.LessThan(MinReturnOrderTotal) {
		return model.NewDomainError(model.ErrCodeReturnNotAllowed,
			fmt.Sprintf("orders below %s are not eligible for return", MinReturnOrderTotal))
	}
	if o.DeliveredAt == nil {
		return model.NewDomainError(model.ErrCodeReturnNotAllowed, "delivery time is unknown")
	}
	if now.Sub(*o.DeliveredAt) >= ReturnWindow {
		return model.NewDomainError(model.ErrCodeReturnNotAllowed, "the 12 hour return window has closed")
	}
	return nil
}

// NewReturnRequest validates eligibility and builds a pending request.
func NewReturnRequest(o *model.Order, reason string, now time.Time) (*model.ReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.ValidationError("return reason is required")
	}
	if err := CheckReturnEligibility(o, now); err != nil {
		return nil, err
	}

	return &model.ReturnRequest{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Reason:    reason,
		Status:    model.ReturnStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

var returnTransitions = map[model.ReturnStatus][]model.ReturnStatus{
	model.ReturnStatusPending:  {model.ReturnStatusApproved, model.ReturnStatusRejected},
	model.ReturnStatusApproved: {model.ReturnStatusRefunded},
}

// CanTransitionReturn reports whether a return request may move between statuses.
func CanTransitionReturn(from, to model.ReturnStatus) bool {
	for _, next := range returnTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReviewReturn applies an admin decision. Moving to refunded requires a
// positive refund amount that does not exceed the order total.
func ReviewReturn(r *model.ReturnRequest, o *model.Order, review model.ReturnReview, now time.Time) error {
	if !CanTransitionReturn(r.Status, review.Status) {
		return model.NewDomainError(model.ErrCodeIllegalTransition,
			fmt.Sprintf("cannot move return from %s to %s", r.Status, review.Status))
	}

	if review.Status == model.ReturnStatusRefunded {
		if review.RefundAmount == nil || !review.RefundAmount.IsPositive() {
			return model.ValidationError("refund amount is required")
		}
		if review.RefundAmount.GreaterThan(o.Total) {
			return model.ValidationError("refund amount cannot exceed the order total")
		}
		amount := *review.RefundAmount
		r.RefundAmount = &amount
	}

	r.Status = review.Status
	if notes := strings.TrimSpace(review.AdminNotes); notes != "" {
		r.AdminNotes = notes
	}
	r.UpdatedAt = now

	return nil
}
