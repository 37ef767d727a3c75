package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest is the POST /tickets payload.
type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// UpdateTicketRequest is the PUT /tickets/:id payload.
type UpdateTicketRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateReplyRequest is the POST /tickets/:id/replies payload.
type CreateReplyRequest struct {
	Body string `json:"body"`
}

// TicketResponse is the public ticket shape.
type TicketResponse struct {
	TicketID   int64               `json:"ticketId"`
	Subject    string              `json:"subject"`
	Body       string              `json:"body"`
	Author     string              `json:"author"`
	Status     domain.TicketStatus `json:"status"`
	ResolvedAt *time.Time          `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// NewTicketResponse maps a ticket to its public shape.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:   ticket.Number,
		Subject:    ticket.Subject,
		Body:       ticket.Body,
		Author:     ticket.AuthorID,
		Status:     ticket.Status,
		ResolvedAt: ticket.ResolvedAt,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

// ReplyResponse is the public reply shape.
type ReplyResponse struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	TicketID  string    `json:"ticketId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReplyResponse maps a reply to its public shape.
func NewReplyResponse(reply *domain.Reply) ReplyResponse {
	return ReplyResponse{
		ID:        reply.ID,
		Body:      reply.Body,
		Author:    reply.AuthorID,
		TicketID:  reply.TicketID,
		CreatedAt: reply.CreatedAt,
	}
}
