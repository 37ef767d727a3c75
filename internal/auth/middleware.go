package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const identityKey = "auth_identity"

// Uniform client-facing message for every authorization failure: the
// internal reason is logged but never leaked, so callers cannot probe for
// accounts or roles.
const unauthorizedMessage = "you are not authorized to access this resource"

// FailureReason distinguishes authorization failures internally.
type FailureReason string

const (
	FailureMissingToken   FailureReason = "MISSING_TOKEN"
	FailureInvalidToken   FailureReason = "INVALID_TOKEN"
	FailureUnknownAccount FailureReason = "UNKNOWN_ACCOUNT"
	FailureForbiddenRole  FailureReason = "FORBIDDEN_ROLE"
)

// Identity is the verified (account id, role) pair attached to a request
// after it passes the gate.
type Identity struct {
	AccountID string
	Role      domain.Role
}

// Gate validates bearer tokens, resolves accounts and enforces role
// membership on protected routes.
type Gate struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
	logger   *zap.Logger
}

// NewGate constructs the access-control gate.
func NewGate(tokens *TokenManager, accounts repository.AccountRepository, logger *zap.Logger) *Gate {
	return &Gate{tokens: tokens, accounts: accounts, logger: logger}
}

// Require returns a middleware enforcing that the caller is authenticated
// and, when roles are given, holds one of them. An empty role list means
// any authenticated role is acceptable, not that authorization is skipped.
func (g *Gate) Require(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, reason, err := g.resolve(c, allowed)
		if err != nil {
			return err
		}
		if identity == nil {
			g.logger.Debug("authorization rejected",
				zap.String("reason", string(reason)),
				zap.String("path", c.Path()),
			)
			return apperrors.NewUnauthorized(unauthorizedMessage)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// resolve walks the authorization ladder. A nil identity with a reason is
// an authorization failure; a non-nil error is an infrastructure fault.
func (g *Gate) resolve(c *fiber.Ctx, allowed map[domain.Role]struct{}) (*Identity, FailureReason, error) {
	token := bearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return nil, FailureMissingToken, nil
	}

	claims := g.tokens.Verify(token)
	if claims == nil || claims.Purpose != PurposeAuthentication {
		return nil, FailureInvalidToken, nil
	}

	if _, err := g.accounts.GetByID(c.Context(), claims.AccountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, FailureUnknownAccount, nil
		}
		return nil, "", apperrors.MapError(err)
	}

	if len(allowed) > 0 {
		if _, ok := allowed[claims.Role]; !ok {
			return nil, FailureForbiddenRole, nil
		}
	}

	return &Identity{AccountID: claims.AccountID, Role: claims.Role}, "", nil
}

// IdentityFromContext retrieves the resolved identity set by the gate.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
