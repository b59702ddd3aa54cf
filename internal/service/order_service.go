package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tapandbuy/internal/events"
	"tapandbuy/internal/lifecycle"
	"tapandbuy/internal/model"
	"tapandbuy/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo  repository.OrderRepository
	returnRepo repository.ReturnRepository
	notifier   *notifier
	now        func() time.Time
	logger     zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	returnRepo repository.ReturnRepository,
	notifications repository.NotificationRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	logger = logger.With().Str("service", "order").Logger()
	return &orderService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		notifier:   newNotifier(notifications, publisher, logger),
		now:        time.Now,
		logger:     logger,
	}
}

func (s *orderService) load(ctx context.Context, orderID uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("order not found")
		return nil, nil, model.ErrOrderNotFound
	}
	return order, items, nil
}

// loadOwned hides orders of other accounts behind ErrOrderNotFound.
func (s *orderService) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, items, err := s.load(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != userID {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("user_id", userID.String()).
			Msg("order requested by non-owner")
		return nil, nil, model.ErrOrderNotFound
	}
	return order, items, nil
}

func checkVersion(expected *int, current int) error {
	if expected != nil && *expected != current {
		return model.ErrConcurrentUpdate
	}
	return nil
}

func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	limit, offset = clampPage(limit, offset)
	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// RequestCancellation flags the order for an admin decision.
func (s *orderService) RequestCancellation(ctx context.Context, userID, orderID uuid.UUID, req model.CancellationRequest) (*model.Order, error) {
	order, _, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequestCancellation(order, req.Reason, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID.String()).Msg("cancellation requested")
	s.notifier.announce(ctx, notice{
		userID:    order.UserID,
		entityID:  order.ID,
		kind:      model.NotificationOrder,
		title:     "Cancellation requested",
		message:   fmt.Sprintf("We received your request to cancel order %s.", order.OrderCode),
		eventType: events.OrderCancellationRequested,
		payload:   map[string]any{"orderCode": order.OrderCode, "reason": order.CancellationReason},
	})

	return order, nil
}

// RequestReturn opens a pending return for a recently delivered order.
func (s *orderService) RequestReturn(ctx context.Context, userID, orderID uuid.UUID, req model.ReturnCreateRequest) (*model.ReturnRequest, error) {
	order, _, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	rr, err := lifecycle.NewReturnRequest(order, req.Reason, s.now().UTC())
	if err != nil {
		return nil, err
	}
	rr.ID = uuid.New()

	if err := s.returnRepo.Create(ctx, rr); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create return request")
		return nil, fmt.Errorf("failed to create return request: %w", err)
	}

	s.logger.Info().Str("order_id", order.ID.String()).Str("return_id", rr.ID.String()).Msg("return requested")
	s.notifier.announce(ctx, notice{
		userID:    userID,
		entityID:  rr.ID,
		kind:      model.NotificationReturn,
		title:     "Return requested",
		message:   fmt.Sprintf("Your return request for order %s is under review.", order.OrderCode),
		eventType: events.ReturnRequested,
		payload:   map[string]any{"orderId": order.ID.String(), "orderCode": order.OrderCode},
	})

	return rr, nil
}

func (s *orderService) ListMyReturns(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, error) {
	returns, err := s.returnRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get return requests: %w", err)
	}
	return returns, nil
}

func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, model.ValidationError(fmt.Sprintf("unknown order status %q", *filter.Status))
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// UpdateStatus advances the order along the status graph.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req model.StatusUpdateRequest) (*model.Order, error) {
	order, _, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(req.ExpectedVersion, order.Version); err != nil {
		return nil, err
	}

	from := order.Status
	if err := lifecycle.AdvanceStatus(order, req.Status, req.TrackingInfo, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(from)).
		Str("to", string(order.Status)).
		Msg("order status updated")

	message := fmt.Sprintf("Your order %s is now %s.", order.OrderCode, order.Status)
	if order.Status == model.OrderStatusShipped && order.TrackingInfo != "" {
		message = fmt.Sprintf("Your order %s has shipped. Tracking: %s.", order.OrderCode, order.TrackingInfo)
	}
	s.notifier.announce(ctx, notice{
		userID:    order.UserID,
		entityID:  order.ID,
		kind:      model.NotificationOrder,
		title:     "Order " + string(order.Status),
		message:   message,
		eventType: events.OrderStatusChanged,
		payload: map[string]any{
			"orderCode": order.OrderCode,
			"from":      string(from),
			"to":        string(order.Status),
		},
	})

	return order, nil
}

// DecideCancellation approves or rejects a pending cancellation request.
func (s *orderService) DecideCancellation(ctx context.Context, orderID uuid.UUID, req model.CancellationDecision) (*model.Order, error) {
	order, _, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(req.ExpectedVersion, order.Version); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if req.Approve {
		err = lifecycle.ApproveCancellation(order, now)
	} else {
		err = lifecycle.RejectCancellation(order, now)
	}
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	title, message := "Cancellation approved", fmt.Sprintf("Your order %s has been cancelled.", order.OrderCode)
	if !req.Approve {
		title, message = "Cancellation declined", fmt.Sprintf("Your cancellation request for order %s was declined.", order.OrderCode)
	}

	s.logger.Info().Str("order_id", order.ID.String()).Bool("approved", req.Approve).Msg("cancellation decided")
	s.notifier.announce(ctx, notice{
		userID:    order.UserID,
		entityID:  order.ID,
		kind:      model.NotificationOrder,
		title:     title,
		message:   message,
		eventType: events.OrderCancellationDecided,
		payload:   map[string]any{"orderCode": order.OrderCode, "approved": req.Approve},
	})

	return order, nil
}

func (s *orderService) ListReturns(ctx context.Context, status *model.ReturnStatus) ([]model.ReturnRequest, error) {
	returns, err := s.returnRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get return requests: %w", err)
	}
	return returns, nil
}

// ReviewReturn moves a return request forward.
func (s *orderService) ReviewReturn(ctx context.Context, returnID uuid.UUID, req model.ReturnReview) (*model.ReturnRequest, error) {
	rr, err := s.returnRepo.GetByID(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}
	if rr == nil {
		return nil, model.NewDomainError(model.ErrCodeNotFound, "Return request not found")
	}
	if err := checkVersion(req.ExpectedVersion, rr.Version); err != nil {
		return nil, err
	}

	order, _, err := s.load(ctx, rr.OrderID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ReviewReturn(rr, order, req, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Update(ctx, rr); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your return for order %s was %s.", order.OrderCode, rr.Status)
	if rr.Status == model.ReturnStatusRefunded && rr.RefundAmount != nil {
		message = fmt.Sprintf("A refund of %s for order %s has been issued.", formatAmount(*rr.RefundAmount), order.OrderCode)
	}
	if rr.AdminNotes != "" {
		message += " " + strings.TrimSuffix(rr.AdminNotes, ".") + "."
	}

	s.logger.Info().Str("return_id", rr.ID.String()).Str("status", string(rr.Status)).Msg("return reviewed")
	s.notifier.announce(ctx, notice{
		userID:    rr.UserID,
		entityID:  rr.ID,
		kind:      model.NotificationReturn,
		title:     "Return " + string(rr.Status),
		message:   message,
		eventType: events.ReturnReviewed,
		payload: map[string]any{
			"orderId":   order.ID.String(),
			"orderCode": order.OrderCode,
			"status":    string(rr.Status),
		},
	})

	return rr, nil
}
