package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType labels lifecycle events published by the ticket service.
type EventType string

const (
	EventTicketCreated  EventType = "ticket.created"
	EventTicketReplied  EventType = "ticket.replied"
	EventTicketResolved EventType = "ticket.resolved"
)

// Event is a lifecycle notification. ID is assigned by the publisher.
type Event struct {
	ID           string
	Type         EventType
	TicketNumber int64
	ActorID      string
	ActorRole    domain.Role
	OccurredAt   time.Time
	Payload      any
}

// TicketCreatedPayload accompanies EventTicketCreated.
type TicketCreatedPayload struct {
	Subject string
}

// TicketRepliedPayload accompanies EventTicketReplied.
type TicketRepliedPayload struct {
	ReplyID   string
	NewStatus domain.TicketStatus
}

// TicketResolvedPayload accompanies EventTicketResolved.
type TicketResolvedPayload struct {
	ResolvedAt time.Time
}
