package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

type accountStore struct {
	accounts map[string]*domain.Account
	nextID   int
}

func (s *accountStore) Create(_ context.Context, account *domain.Account) error {
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return fmt.Errorf("duplicate username %q", account.Username)
		}
	}
	s.nextID++
	account.ID = fmt.Sprintf("acc-%d", s.nextID)
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = account
	return nil
}

func (s *accountStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	if account, ok := s.accounts[id]; ok {
		return account, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *accountStore) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type ticketStore struct {
	tickets []*domain.Ticket
	counter int64
}

func (s *ticketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.counter++
	ticket.Number = s.counter
	ticket.ID = fmt.Sprintf("t-%d", s.counter)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets = append(s.tickets, ticket)
	return nil
}

func (s *ticketStore) GetByNumber(_ context.Context, number int64) (*domain.Ticket, error) {
	for _, ticket := range s.tickets {
		if ticket.Number == number {
			return ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *ticketStore) GetByNumberForAuthor(_ context.Context, number int64, authorID string) (*domain.Ticket, error) {
	for _, ticket := range s.tickets {
		if ticket.Number == number && ticket.AuthorID == authorID {
			return ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *ticketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if filter.AuthorID != nil && ticket.AuthorID != *filter.AuthorID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (s *ticketStore) ListResolvedSince(_ context.Context, cutoff time.Time, _ repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusResolved && ticket.ResolvedAt != nil && ticket.ResolvedAt.After(cutoff) {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (s *ticketStore) MarkResolved(_ context.Context, number int64, authorID string, at time.Time) (bool, error) {
	for _, ticket := range s.tickets {
		if ticket.Number == number && ticket.AuthorID == authorID && ticket.Status != domain.TicketStatusResolved {
			resolvedAt := at
			ticket.Status = domain.TicketStatusResolved
			ticket.ResolvedAt = &resolvedAt
			return true, nil
		}
	}
	return false, nil
}

type replyStore struct {
	tickets *ticketStore
	replies []*domain.Reply
	nextID  int
}

func (s *replyStore) CreateWithTicketStatus(_ context.Context, reply *domain.Reply, status domain.TicketStatus) error {
	s.nextID++
	reply.ID = fmt.Sprintf("r-%d", s.nextID)
	reply.CreatedAt = time.Now()
	s.replies = append(s.replies, reply)
	for _, ticket := range s.tickets.tickets {
		if ticket.ID == reply.TicketID {
			ticket.Status = status
		}
	}
	return nil
}

func (s *replyStore) ListByTicket(_ context.Context, ticketID string, _ repository.ReplyFilter) ([]domain.Reply, error) {
	var result []domain.Reply
	for _, reply := range s.replies {
		if reply.TicketID == ticketID {
			result = append(result, *reply)
		}
	}
	return result, nil
}

type testServer struct {
	app     *fiber.App
	tickets *ticketStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	accounts := &accountStore{accounts: map[string]*domain.Account{}}
	tickets := &ticketStore{}
	replies := &replyStore{tickets: tickets}

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, accounts, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		ReplyRepo:  replies,
		Logger:     logger,
	})
	gate := auth.NewGate(authService.TokenManager(), accounts, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler("helpdesk-test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:    handlers.NewAuthHandler(authService),
		Users:   handlers.NewUsersHandler(authService),
		Tickets: handlers.NewTicketsHandler(ticketService),
		Gate:    gate,
	})

	srv := &testServer{app: app, tickets: tickets}
	srv.register(t, "iambenkay", "0000", "ADMIN")
	srv.register(t, "benjamin", "0000", "SUPPORT_AGENT")
	srv.register(t, "kayode", "0000", "CUSTOMER")
	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	var decoded map[string]any
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "text/csv" {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, raw, err)
		}
	}
	return resp, decoded
}

func (s *testServer) register(t *testing.T, username, pin, role string) {
	t.Helper()
	resp, _ := s.do(t, http.MethodPost, "/users", "", fiber.Map{
		"username": username, "pin": pin, "role": role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, resp.StatusCode)
	}
}

func (s *testServer) login(t *testing.T, username, pin string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/login", "", fiber.Map{
		"username": username, "pin": pin,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response", username)
	}
	return token
}

func ticketNumber(t *testing.T, body map[string]any) int64 {
	t.Helper()
	data, _ := body["data"].(map[string]any)
	number, ok := data["ticketId"].(float64)
	if !ok {
		t.Fatalf("no ticketId in response data: %v", body)
	}
	return int64(number)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(t, http.MethodPost, "/login", "", fiber.Map{"username": "kayode", "pin": "9999"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRegisterRejectsBadPin(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := srv.do(t, http.MethodPost, "/users", "", fiber.Map{
		"username": "newuser", "pin": "12ab", "role": "CUSTOMER",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateTicketScenario(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "kayode", "0000")

	// Missing body is rejected.
	resp, _ := srv.do(t, http.MethodPost, "/tickets", token, fiber.Map{"subject": "Test Issue"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("create without body: status = %d, want 400", resp.StatusCode)
	}

	resp, body := srv.do(t, http.MethodPost, "/tickets", token, fiber.Map{
		"subject": "Test Issue", "body": "Test lorem ipsum issue",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create ticket: status = %d, want 201", resp.StatusCode)
	}
	first := ticketNumber(t, body)

	_, body = srv.do(t, http.MethodPost, "/tickets", token, fiber.Map{
		"subject": "Another Issue", "body": "more detail",
	})
	if got := ticketNumber(t, body); got != first+1 {
		t.Errorf("second ticket number = %d, want %d", got, first+1)
	}
}

func TestCreateTicketRequiresCustomerRole(t *testing.T) {
	srv := newTestServer(t)
	agentToken := srv.login(t, "benjamin", "0000")

	resp, _ := srv.do(t, http.MethodPost, "/tickets", agentToken, fiber.Map{
		"subject": "Test Issue", "body": "agents cannot file tickets",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestReplyLifecycleScenario(t *testing.T) {
	srv := newTestServer(t)
	kayode := srv.login(t, "kayode", "0000")
	benjamin := srv.login(t, "benjamin", "0000")

	_, body := srv.do(t, http.MethodPost, "/tickets", kayode, fiber.Map{
		"subject": "Test Issue", "body": "Test lorem ipsum issue",
	})
	number := ticketNumber(t, body)
	repliesPath := fmt.Sprintf("/tickets/%d/replies", number)

	// Customer may not reply before a support agent has.
	resp, body := srv.do(t, http.MethodPost, repliesPath, kayode, fiber.Map{"body": "First Reply"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("premature customer reply: status = %d, want 400", resp.StatusCode)
	}
	if errObj, _ := body["error"].(map[string]any); errObj != nil {
		if msg, _ := errObj["message"].(string); msg != "ticket has not been replied by support agent" {
			t.Errorf("message = %q", msg)
		}
	}

	resp, _ = srv.do(t, http.MethodPost, repliesPath, benjamin, fiber.Map{"body": "we are looking into it"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("agent reply: status = %d, want 201", resp.StatusCode)
	}
	if got := srv.tickets.tickets[0].Status; got != domain.TicketStatusReplied {
		t.Errorf("ticket status = %q, want REPLIED", got)
	}

	resp, _ = srv.do(t, http.MethodPost, repliesPath, kayode, fiber.Map{"body": "thanks, fixed now"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("customer reply after agent: status = %d, want 201", resp.StatusCode)
	}

	// The author resolves the ticket.
	resp, _ = srv.do(t, http.MethodPut, fmt.Sprintf("/tickets/%d", number), kayode, fiber.Map{"status": "RESOLVED"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: status = %d, want 200", resp.StatusCode)
	}
	resolved := srv.tickets.tickets[0]
	if resolved.Status != domain.TicketStatusResolved || resolved.ResolvedAt == nil {
		t.Errorf("ticket not resolved: status=%q resolvedAt=%v", resolved.Status, resolved.ResolvedAt)
	}

	// Replies are visible to both parties.
	resp, body = srv.do(t, http.MethodGet, repliesPath, benjamin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list replies: status = %d", resp.StatusCode)
	}
	if items, _ := body["data"].([]any); len(items) != 2 {
		t.Errorf("agent sees %d replies, want 2", len(items))
	}
}

func TestListTicketsRoleScoping(t *testing.T) {
	srv := newTestServer(t)
	kayode := srv.login(t, "kayode", "0000")
	adminToken := srv.login(t, "iambenkay", "0000")

	srv.register(t, "another", "0000", "CUSTOMER")
	another := srv.login(t, "another", "0000")

	srv.do(t, http.MethodPost, "/tickets", kayode, fiber.Map{"subject": "mine", "body": "b"})
	srv.do(t, http.MethodPost, "/tickets", another, fiber.Map{"subject": "theirs", "body": "b"})

	_, body := srv.do(t, http.MethodGet, "/tickets", kayode, nil)
	if items, _ := body["data"].([]any); len(items) != 1 {
		t.Errorf("customer sees %d tickets, want 1", len(items))
	}

	_, body = srv.do(t, http.MethodGet, "/tickets", adminToken, nil)
	if items, _ := body["data"].([]any); len(items) != 2 {
		t.Errorf("admin sees %d tickets, want 2", len(items))
	}
}

func TestResolvedReportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	kayode := srv.login(t, "kayode", "0000")
	benjamin := srv.login(t, "benjamin", "0000")

	// Customers are not allowed at all.
	resp, _ := srv.do(t, http.MethodGet, "/tickets/resolved-report", kayode, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("customer report access: status = %d, want 401", resp.StatusCode)
	}

	_, body := srv.do(t, http.MethodPost, "/tickets", kayode, fiber.Map{
		"subject": "Test Issue", "body": "Test lorem ipsum issue",
	})
	number := ticketNumber(t, body)
	srv.do(t, http.MethodPost, fmt.Sprintf("/tickets/%d/replies", number), benjamin, fiber.Map{"body": "done"})
	srv.do(t, http.MethodPut, fmt.Sprintf("/tickets/%d", number), kayode, fiber.Map{"status": "RESOLVED"})

	req := httptest.NewRequest(http.MethodGet, "/tickets/resolved-report", nil)
	req.Header.Set("Authorization", "Bearer "+benjamin)
	reportResp, err := srv.app.Test(req)
	if err != nil {
		t.Fatalf("report request: %v", err)
	}
	if reportResp.StatusCode != http.StatusOK {
		t.Fatalf("report: status = %d, want 200", reportResp.StatusCode)
	}
	if ct := reportResp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	raw, err := io.ReadAll(reportResp.Body)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("ticketId,subject,body,status,resolvedAt,createdAt")) {
		t.Errorf("report header missing, got %q", raw)
	}
	if !bytes.Contains(raw, []byte("Test Issue")) {
		t.Errorf("resolved ticket missing from report: %q", raw)
	}
}

func TestGetTicketScoping(t *testing.T) {
	srv := newTestServer(t)
	kayode := srv.login(t, "kayode", "0000")
	benjamin := srv.login(t, "benjamin", "0000")

	srv.register(t, "another", "0000", "CUSTOMER")
	another := srv.login(t, "another", "0000")

	_, body := srv.do(t, http.MethodPost, "/tickets", kayode, fiber.Map{"subject": "s", "body": "b"})
	path := fmt.Sprintf("/tickets/%d", ticketNumber(t, body))

	resp, _ := srv.do(t, http.MethodGet, path, kayode, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("author fetch: status = %d, want 200", resp.StatusCode)
	}
	resp, _ = srv.do(t, http.MethodGet, path, benjamin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("agent fetch: status = %d, want 200", resp.StatusCode)
	}
	resp, _ = srv.do(t, http.MethodGet, path, another, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("non-author fetch: status = %d, want 404", resp.StatusCode)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	srv := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/tickets"},
		{http.MethodPost, "/tickets"},
		{http.MethodGet, "/tickets/1"},
		{http.MethodGet, "/tickets/resolved-report"},
		{http.MethodGet, "/tickets/1/replies"},
	}
	for _, p := range paths {
		resp, _ := srv.do(t, p.method, p.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, resp.StatusCode)
		}
	}
}
