package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusUnattended TicketStatus = "UNATTENDED"
	TicketStatusReplied    TicketStatus = "REPLIED"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// Ticket is the aggregate for support requests. Number is the
// customer-facing sequential identifier, distinct from the storage id.
// ResolvedAt is set iff Status is RESOLVED.
type Ticket struct {
	ID         string
	Number     int64
	Subject    string
	Body       string
	AuthorID   string
	Status     TicketStatus
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
