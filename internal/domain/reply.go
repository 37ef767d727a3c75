package domain

import "time"

// Reply is an append-only message on a ticket. Replies are never edited
// or deleted and always reference an existing ticket.
type Reply struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
