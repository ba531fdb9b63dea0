package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/config"
)

var signingMethod = jwt.SigningMethodHS256

// Manager issues and verifies the signed tokens that scope a cart session.
// The subject claim carries the session id; nothing else is stored in the
// token because there are no user accounts behind it.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager builds a session token manager from config.
func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("session secret required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("session issuer required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
	}, nil
}

// Issue mints a signed token for the given session id.
func (m *Manager) Issue(sessionID uuid.UUID) (string, error) {
	if sessionID == uuid.Nil {
		return "", fmt.Errorf("session id required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   sessionID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString(m.secret)
}

// Verify checks signature, issuer and expiry, and returns the session id.
func (m *Manager) Verify(token string) (uuid.UUID, error) {
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, fmt.Errorf("token required")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session token: %w", err)
	}

	sessionID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session subject: %w", err)
	}
	return sessionID, nil
}
