package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// PurposeAuthentication is the only claim purpose honored today. The
// purpose tag reserves the token format for future non-auth uses.
const PurposeAuthentication = "authentication"

const issuer = "web-service"

// TokenManager issues and verifies signed identity assertions.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes the JWT payload: subject account id, the role captured
// at issuance time, and the purpose tag.
type Claims struct {
	AccountID string      `json:"id"`
	Role      domain.Role `json:"role"`
	Purpose   string      `json:"purpose"`
	jwt.RegisteredClaims
}

// Issue builds and signs a token for the account.
func (tm *TokenManager) Issue(accountID string, role domain.Role) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		AccountID: accountID,
		Role:      role,
		Purpose:   PurposeAuthentication,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates signature and expiry and returns the decoded claims,
// or nil on any failure (malformed, expired, bad signature). Callers must
// treat a nil result as unauthenticated; no error detail escapes here.
func (tm *TokenManager) Verify(tokenStr string) *Claims {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil
	}
	return claims
}
