package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters. A nil AuthorID lists all
// tickets; customers always list with their own id set.
type TicketFilter struct {
	AuthorID  *string
	Sort      string
	Direction string
	Limit     int
	Offset    int
}

// TicketRepository encapsulates ticket persistence. Create allocates the
// sequential ticket number through an atomic counter upsert, so concurrent
// creations cannot race to the same number.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error)
	GetByNumberForAuthor(ctx context.Context, number int64, authorID string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListResolvedSince(ctx context.Context, cutoff time.Time, filter TicketFilter) ([]domain.Ticket, error)
	MarkResolved(ctx context.Context, number int64, authorID string, at time.Time) (bool, error)
}

// tickets sort keys exposed to callers, mapped to real columns. Unknown
// keys fall back to the ticket number.
var ticketSortColumns = map[string]string{
	"ticketId":   "ticket_number",
	"subject":    "subject",
	"status":     "status",
	"resolvedAt": "resolved_at",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	// The counter row is seeded from max(ticket_number) by the migration;
	// the upsert increments and reads it in one statement.
	const query = `
        WITH seq AS (
            INSERT INTO ticket_counters (name, value)
            VALUES ('ticket_number', 1)
            ON CONFLICT (name) DO UPDATE SET value = ticket_counters.value + 1
            RETURNING value
        )
        INSERT INTO tickets (ticket_number, subject, body, author_id, status)
        SELECT seq.value, $1, $2, $3, $4 FROM seq
        RETURNING id, ticket_number, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Subject,
		ticket.Body,
		ticket.AuthorID,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.Number, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, ticket_number, subject, body, author_id, status, resolved_at, created_at, updated_at
        FROM tickets WHERE ticket_number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) GetByNumberForAuthor(ctx context.Context, number int64, authorID string) (*domain.Ticket, error) {
	const query = `
        SELECT id, ticket_number, subject, body, author_id, status, resolved_at, created_at, updated_at
        FROM tickets WHERE ticket_number=$1 AND author_id=$2`
	return r.fetchSingle(ctx, query, number, authorID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Subject,
		&ticket.Body,
		&ticket.AuthorID,
		&ticket.Status,
		&ticket.ResolvedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, ticket_number, subject, body, author_id, status, resolved_at, created_at, updated_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		clauses = append(clauses, fmt.Sprintf("author_id=$%d", len(args)))
	}

	return r.list(ctx, base, clauses, args, filter)
}

func (r *ticketRepository) ListResolvedSince(ctx context.Context, cutoff time.Time, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, ticket_number, subject, body, author_id, status, resolved_at, created_at, updated_at
             FROM tickets`
	args := []any{domain.TicketStatusResolved, cutoff}
	clauses := []string{"status=$1", "resolved_at > $2"}

	return r.list(ctx, base, clauses, args, filter)
}

func (r *ticketRepository) list(ctx context.Context, base string, clauses []string, args []any, filter TicketFilter) ([]domain.Ticket, error) {
	query := fmt.Sprintf("%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		base,
		strings.Join(clauses, " AND "),
		sortColumn(ticketSortColumns, filter.Sort, "ticket_number"),
		sortDirection(filter.Direction),
		normalizeLimit(filter.Limit),
		normalizeOffset(filter.Offset),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// MarkResolved sets status and resolvedAt for the author's ticket. A
// non-matching author or number matches zero rows and is a silent no-op;
// a ticket already RESOLVED is left untouched so the state stays terminal
// and resolvedAt is written exactly once.
func (r *ticketRepository) MarkResolved(ctx context.Context, number int64, authorID string, at time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET status=$1, resolved_at=$2, updated_at=NOW()
        WHERE ticket_number=$3 AND author_id=$4 AND status <> $1`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusResolved, at, number, authorID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Subject,
			&ticket.Body,
			&ticket.AuthorID,
			&ticket.Status,
			&ticket.ResolvedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
