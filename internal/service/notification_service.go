package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// NotificationService reacts to ticket lifecycle events. Delivery is a
// stub: notifications are logged where a real deployment would send email
// or webhooks.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to the lifecycle events.
func (s *NotificationService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketCreated, s.notify)
	s.dispatcher.Subscribe(events.EventTicketReplied, s.notify)
	s.dispatcher.Subscribe(events.EventTicketResolved, s.notify)
}

func (s *NotificationService) notify(_ context.Context, event events.Event) error {
	s.logger.Info("notification",
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Type)),
		zap.Int64("ticket", event.TicketNumber),
		zap.String("actor", event.ActorID),
		zap.String("actor_role", string(event.ActorRole)),
	)
	return nil
}
