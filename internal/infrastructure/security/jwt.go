package security

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// Claims is the access token payload. Subject holds the user id, ID the session id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 access tokens. When a SessionStore is
// set, every token is bound to a live session that can be revoked.
type JWTManager struct {
	secret   []byte
	ttl      time.Duration
	sessions ports.SessionStore
	now      func() time.Time
}

// NewJWTManager returns a manager signing with secret. sessions may be nil,
// in which case tokens stay valid until they expire.
func NewJWTManager(secret string, ttl time.Duration, sessions ports.SessionStore) *JWTManager {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTManager{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
		now:      time.Now,
	}
}

// Issue satisfies ports.TokenIssuer.
func (m *JWTManager) Issue(ctx context.Context, user *domain.User) (string, error) {
	now := m.now().UTC()
	sessionID := uuid.NewString()

	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if m.sessions != nil {
		if err := m.sessions.Save(ctx, sessionID, user.ID, m.ttl); err != nil {
			return "", fmt.Errorf("save session: %w", err)
		}
	}
	return signed, nil
}

// Verify satisfies ports.TokenVerifier.
func (m *JWTManager) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, domain.ErrUnauthorized
	}

	if m.sessions != nil {
		live, err := m.sessions.Exists(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !live {
			return nil, domain.ErrUnauthorized
		}
	}

	return &domain.Principal{
		UserID:    userID,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
