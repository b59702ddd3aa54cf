package service

import (
	"context"
	"time"

	"tapandbuy/internal/events"
	"tapandbuy/internal/model"
	"tapandbuy/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders a rupee amount with grouping, e.g. ₹1,170.00.
func formatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("₹%.2f", d.InexactFloat64())
}

// notice is a side effect announced after a state change has been stored.
type notice struct {
	userID    uuid.UUID
	entityID  uuid.UUID
	kind      string
	title     string
	message   string
	eventType string
	payload   map[string]any
}

// notifier writes in-app notifications and publishes domain events. Both are
// best effort: failures are logged and never surface to the caller.
type notifier struct {
	notifications repository.NotificationRepository
	publisher     events.Publisher
	now           func() time.Time
	logger        zerolog.Logger
}

func newNotifier(notifications repository.NotificationRepository, publisher events.Publisher, logger zerolog.Logger) *notifier {
	return &notifier{
		notifications: notifications,
		publisher:     publisher,
		now:           time.Now,
		logger:        logger,
	}
}

func (n *notifier) announce(ctx context.Context, nt notice) {
	if nt.title != "" {
		related := nt.entityID
		err := n.notifications.Create(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    nt.userID,
			Title:     nt.title,
			Message:   nt.message,
			Type:      nt.kind,
			RelatedID: &related,
			CreatedAt: n.now().UTC(),
		})
		if err != nil {
			n.logger.Warn().Err(err).
				Str("user_id", nt.userID.String()).
				Str("entity_id", nt.entityID.String()).
				Msg("failed to create notification")
		}
	}

	if nt.eventType != "" {
		err := n.publisher.Publish(ctx, events.Event{
			Type:       nt.eventType,
			EntityID:   nt.entityID,
			UserID:     nt.userID,
			Payload:    nt.payload,
			OccurredAt: n.now().UTC(),
		})
		if err != nil {
			n.logger.Warn().Err(err).
				Str("event", nt.eventType).
				Str("entity_id", nt.entityID.String()).
				Msg("failed to publish event")
		}
	}
}
