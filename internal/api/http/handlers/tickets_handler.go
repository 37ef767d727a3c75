package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/pagination"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Per-endpoint paging defaults.
var (
	ticketPageDefaults = pagination.PageRequest{Page: 1, Limit: 20, Sort: "ticketId", Direction: pagination.DirectionAsc}
	reportPageDefaults = pagination.PageRequest{Page: 1, Limit: 20, Sort: "resolvedAt", Direction: pagination.DirectionAsc}
	replyPageDefaults  = pagination.PageRequest{Page: 1, Limit: 20, Sort: "createdAt", Direction: pagination.DirectionDesc}
)

// TicketsHandler serves the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), identity, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "ticket was created successfully",
		"data":    dto.NewTicketResponse(ticket),
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := pageFromQuery(c, ticketPageDefaults)

	tickets, err := h.service.ListTickets(c.Context(), identity, page)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{
		"error":   false,
		"message": "tickets retrieved successfully",
		"data":    items,
	})
}

// ResolvedReport GET /tickets/resolved-report.
func (h *TicketsHandler) ResolvedReport(c *fiber.Ctx) error {
	page := pageFromQuery(c, reportPageDefaults)

	rows, err := h.service.ResolvedReport(c.Context(), page)
	if err != nil {
		return err
	}

	body, err := renderReportCSV(rows)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(body)
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	number, err := ticketNumberParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.UpdateTicket(c.Context(), identity, number, req.Status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"error":   false,
		"message": "ticket updated successfully",
		"data":    nil,
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	number, err := ticketNumberParam(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.GetTicket(c.Context(), identity, number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"error":   false,
		"message": "ticket retrieved successfully",
		"data":    dto.NewTicketResponse(ticket),
	})
}

// ListReplies GET /tickets/:id/replies.
func (h *TicketsHandler) ListReplies(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	number, err := ticketNumberParam(c)
	if err != nil {
		return err
	}
	page := pageFromQuery(c, replyPageDefaults)

	replies, err := h.service.ListReplies(c.Context(), identity, number, page)
	if err != nil {
		return err
	}
	items := make([]dto.ReplyResponse, 0, len(replies))
	for i := range replies {
		items = append(items, dto.NewReplyResponse(&replies[i]))
	}
	return c.JSON(fiber.Map{
		"error":   false,
		"message": "replies retrieved successfully",
		"data":    items,
	})
}

// CreateReply POST /tickets/:id/replies.
func (h *TicketsHandler) CreateReply(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	number, err := ticketNumberParam(c)
	if err != nil {
		return err
	}
	var req dto.CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.service.CreateReply(c.Context(), identity, number, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"error":   false,
		"message": "reply was created successfully",
		"data":    dto.NewReplyResponse(reply),
	})
}

func ticketNumberParam(c *fiber.Ctx) (int64, error) {
	number, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return number, nil
}

func pageFromQuery(c *fiber.Ctx, defaults pagination.PageRequest) pagination.PageRequest {
	return pagination.Normalize(
		c.Query("page"),
		c.Query("limit"),
		c.Query("sort"),
		c.Query("direction"),
		defaults,
	)
}

func renderReportCSV(rows []service.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(service.ReportFields); err != nil {
		return nil, err
	}
	for _, row := range rows {
		resolvedAt := ""
		if row.ResolvedAt != nil {
			resolvedAt = row.ResolvedAt.Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(row.TicketID, 10),
			row.Subject,
			row.Body,
			string(row.Status),
			resolvedAt,
			row.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
