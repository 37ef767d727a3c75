package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/pagination"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ReportFields declares the flattened field set of the resolved-tickets
// report, in rendering order. The engine emits records; CSV formatting is
// the caller's concern.
var ReportFields = []string{"ticketId", "subject", "body", "status", "resolvedAt", "createdAt"}

// ReportRow is one flattened record of the resolved-tickets report.
type ReportRow struct {
	TicketID   int64               `json:"ticketId"`
	Subject    string              `json:"subject"`
	Body       string              `json:"body"`
	Status     domain.TicketStatus `json:"status"`
	ResolvedAt *time.Time          `json:"resolvedAt"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// TicketService owns the ticket state machine and its role-scoped
// operations. Role admission to each endpoint is the gate's job; the
// branching here is the role-dependent query scoping.
type TicketService struct {
	tickets    repository.TicketRepository
	replies    repository.ReplyRepository
	cache      ReportCache
	cacheTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	ReplyRepo  repository.ReplyRepository
	Cache      ReportCache
	CacheTTL   time.Duration
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket files a new ticket for the customer. The sequential ticket
// number is allocated by the repository at insert time.
func (s *TicketService) CreateTicket(ctx context.Context, identity *auth.Identity, subject, body string) (*domain.Ticket, error) {
	if body == "" {
		return nil, apperrors.NewValidationError("you must provide body", nil)
	}

	ticket := &domain.Ticket{
		Subject:  subject,
		Body:     body,
		AuthorID: identity.AccountID,
		Status:   domain.TicketStatusUnattended,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	s.publish(ctx, identity, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticket.Number,
		Payload:      events.TicketCreatedPayload{Subject: ticket.Subject},
	})
	return ticket, nil
}

// ListTickets returns one page of tickets visible to the caller: admins
// and support agents see everything, customers only what they authored.
func (s *TicketService) ListTickets(ctx context.Context, identity *auth.Identity, page pagination.PageRequest) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Sort:      page.Sort,
		Direction: page.Direction,
		Limit:     page.Limit,
		Offset:    page.Skip(),
	}
	if identity.Role == domain.RoleCustomer {
		filter.AuthorID = &identity.AccountID
	}
	return s.tickets.List(ctx, filter)
}

// ResolvedReport returns the tickets resolved within the last month,
// strictly after now minus one month, as flattened report rows. Pages are
// cached briefly when a cache is configured.
func (s *TicketService) ResolvedReport(ctx context.Context, page pagination.PageRequest) ([]ReportRow, error) {
	key := reportCacheKey(page)
	if rows, ok := s.cacheGet(ctx, key); ok {
		return rows, nil
	}

	cutoff := time.Now().AddDate(0, -1, 0)
	filter := repository.TicketFilter{
		Sort:      page.Sort,
		Direction: page.Direction,
		Limit:     page.Limit,
		Offset:    page.Skip(),
	}
	tickets, err := s.tickets.ListResolvedSince(ctx, cutoff, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	rows := make([]ReportRow, 0, len(tickets))
	for _, ticket := range tickets {
		rows = append(rows, ReportRow{
			TicketID:   ticket.Number,
			Subject:    ticket.Subject,
			Body:       ticket.Body,
			Status:     ticket.Status,
			ResolvedAt: ticket.ResolvedAt,
			CreatedAt:  ticket.CreatedAt,
		})
	}

	s.cacheSet(ctx, key, rows)
	return rows, nil
}

// UpdateTicket applies a customer-submitted status change. Only RESOLVED
// has any effect; every other value is ignored. The author filter rides
// in the update predicate, so a non-author caller matches no row and the
// call is a silent no-op rather than an error.
func (s *TicketService) UpdateTicket(ctx context.Context, identity *auth.Identity, number int64, newStatus domain.TicketStatus) error {
	if newStatus != domain.TicketStatusResolved {
		return nil
	}

	resolvedAt := time.Now()
	updated, err := s.tickets.MarkResolved(ctx, number, identity.AccountID, resolvedAt)
	if err != nil {
		return apperrors.MapError(err)
	}
	if updated {
		s.publish(ctx, identity, events.Event{
			Type:         events.EventTicketResolved,
			TicketNumber: number,
			Payload:      events.TicketResolvedPayload{ResolvedAt: resolvedAt},
		})
	}
	return nil
}

// GetTicket fetches a single ticket by number. Customers only reach their
// own tickets; a miss and a non-owned ticket are indistinguishable.
func (s *TicketService) GetTicket(ctx context.Context, identity *auth.Identity, number int64) (*domain.Ticket, error) {
	ticket, err := s.scopedTicket(ctx, identity, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListReplies returns one page of replies on a ticket. A customer who is
// not the ticket's author gets an empty sequence, not a rejection.
func (s *TicketService) ListReplies(ctx context.Context, identity *auth.Identity, number int64, page pagination.PageRequest) ([]domain.Reply, error) {
	ticket, err := s.scopedTicket(ctx, identity, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if identity.Role == domain.RoleCustomer {
				return []domain.Reply{}, nil
			}
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}

	filter := repository.ReplyFilter{
		Sort:      page.Sort,
		Direction: page.Direction,
		Limit:     page.Limit,
		Offset:    page.Skip(),
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return replies, nil
}

// CreateReply appends a reply and advances the ticket to REPLIED. A
// customer may not reply while the ticket is still UNATTENDED; the first
// reply must come from a support agent. The reply insert and the status
// write happen in one transaction.
func (s *TicketService) CreateReply(ctx context.Context, identity *auth.Identity, number int64, body string) (*domain.Reply, error) {
	if body == "" {
		return nil, apperrors.NewValidationError("you must provide body", nil)
	}

	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if identity.Role == domain.RoleCustomer && ticket.Status == domain.TicketStatusUnattended {
		return nil, apperrors.NewValidationError("ticket has not been replied by support agent", nil)
	}

	// RESOLVED is terminal; a late reply is kept but does not reopen.
	newStatus := domain.TicketStatusReplied
	if ticket.Status == domain.TicketStatusResolved {
		newStatus = domain.TicketStatusResolved
	}

	reply := &domain.Reply{
		Body:     body,
		AuthorID: identity.AccountID,
		TicketID: ticket.ID,
	}
	if err := s.replies.CreateWithTicketStatus(ctx, reply, newStatus); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	s.publish(ctx, identity, events.Event{
		Type:         events.EventTicketReplied,
		TicketNumber: ticket.Number,
		Payload:      events.TicketRepliedPayload{ReplyID: reply.ID, NewStatus: newStatus},
	})
	return reply, nil
}

// scopedTicket resolves a ticket under the caller's visibility rules.
func (s *TicketService) scopedTicket(ctx context.Context, identity *auth.Identity, number int64) (*domain.Ticket, error) {
	switch identity.Role {
	case domain.RoleAdmin, domain.RoleSupportAgent:
		return s.tickets.GetByNumber(ctx, number)
	default:
		return s.tickets.GetByNumberForAuthor(ctx, number, identity.AccountID)
	}
}

func (s *TicketService) publish(ctx context.Context, identity *auth.Identity, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.ActorID = identity.AccountID
	event.ActorRole = identity.Role
	event.OccurredAt = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
	}
}
