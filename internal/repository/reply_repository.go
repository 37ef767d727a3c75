package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ReplyFilter captures reply listing parameters.
type ReplyFilter struct {
	Sort      string
	Direction string
	Limit     int
	Offset    int
}

var replySortColumns = map[string]string{
	"createdAt": "created_at",
}

// ReplyRepository encapsulates reply persistence. Replies are append-only.
type ReplyRepository interface {
	// CreateWithTicketStatus persists the reply and advances the owning
	// ticket's status in a single transaction, so a crash cannot leave a
	// reply against a ticket with a stale status.
	CreateWithTicketStatus(ctx context.Context, reply *domain.Reply, status domain.TicketStatus) error
	ListByTicket(ctx context.Context, ticketID string, filter ReplyFilter) ([]domain.Reply, error)
}

type replyRepository struct {
	pool *pgxpool.Pool
}

// NewReplyRepository instantiates repository.
func NewReplyRepository(pool *pgxpool.Pool) ReplyRepository {
	return &replyRepository{pool: pool}
}

func (r *replyRepository) CreateWithTicketStatus(ctx context.Context, reply *domain.Reply, status domain.TicketStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertReply = `
        INSERT INTO replies (body, author_id, ticket_id)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertReply,
		reply.Body,
		reply.AuthorID,
		reply.TicketID,
	).Scan(&reply.ID, &reply.CreatedAt); err != nil {
		return err
	}

	const updateTicket = `
        UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`
	if _, err := tx.Exec(ctx, updateTicket, status, reply.TicketID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID string, filter ReplyFilter) ([]domain.Reply, error) {
	query := fmt.Sprintf(`
        SELECT id, body, author_id, ticket_id, created_at
        FROM replies WHERE ticket_id=$1
        ORDER BY %s %s LIMIT %d OFFSET %d`,
		sortColumn(replySortColumns, filter.Sort, "created_at"),
		sortDirection(filter.Direction),
		normalizeLimit(filter.Limit),
		normalizeOffset(filter.Offset),
	)

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReplies(rows)
}

func scanReplies(rows pgx.Rows) ([]domain.Reply, error) {
	var result []domain.Reply
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(
			&reply.ID,
			&reply.Body,
			&reply.AuthorID,
			&reply.TicketID,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}

// sortColumn maps a caller-supplied sort key onto a real column, falling
// back when the key is unknown. Keys never reach the SQL text directly.
func sortColumn(columns map[string]string, key, fallback string) string {
	if col, ok := columns[key]; ok {
		return col
	}
	return fallback
}

func sortDirection(direction string) string {
	if strings.EqualFold(direction, "desc") {
		return "DESC"
	}
	return "ASC"
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
