package service

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// AuthService handles registration and login.
type AuthService struct {
	accounts   repository.AccountRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, accounts repository.AccountRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts:   accounts,
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// TokenManager exposes the token manager for the access-control gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates an account. The role is fixed here; no role-change
// path exists afterwards. The pin is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, username, pin string, role domain.Role) (*domain.Account, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username must be provided", nil)
	}
	if !pinPattern.MatchString(pin) {
		return nil, apperrors.NewValidationError("invalid pin: must be 4 digits", nil)
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	hash, err := auth.HashPIN(pin, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Username: username,
		PINHash:  hash,
		Role:     role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		// Constraint violations (duplicate username) surface as
		// validation-class failures carrying the store's message.
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	s.logger.Info("account registered",
		zap.String("username", account.Username),
		zap.String("role", string(account.Role)),
	)
	return account, nil
}

// Login verifies credentials and issues an identity token. Unknown
// usernames and bad pins produce the same message.
func (s *AuthService) Login(ctx context.Context, username, pin string) (*domain.Account, string, time.Time, error) {
	if username == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("username must be provided", nil)
	}
	if pin == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("pin must be provided", nil)
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewValidationError("username or password is incorrect", nil)
	}
	if err := auth.ComparePIN(account.PINHash, pin); err != nil {
		return nil, "", time.Time{}, apperrors.NewValidationError("username or password is incorrect", nil)
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return account, token, expiresAt, nil
}
