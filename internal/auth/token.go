package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/college-event-tickets/internal/domain"
)

const tokenTTL = 24 * time.Hour

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the bearer tokens the HTTP layer
// resolves into a domain.Requester.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

func (m *TokenManager) Issue(u domain.User) (string, error) {
	now := time.Now()
	c := claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify parses a token and returns the requester it encodes.
func (m *TokenManager) Verify(token string) (domain.Requester, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Requester{}, fmt.Errorf("invalid token: %w", err)
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.Requester{}, fmt.Errorf("invalid token subject: %w", err)
	}
	return domain.Requester{ID: id, Role: domain.Role(c.Role)}, nil
}
