package ports

import (
	"context"
	"time"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(ctx context.Context, user *domain.User) (string, error)
}

// TokenVerifier turns a bearer token into a Principal, or fails with
// domain.ErrUnauthorized.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}

// SessionStore tracks live sessions so tokens can be revoked before expiry.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

// InvitationTokens mints single-use invitation tokens. Only the fingerprint
// is persisted; Matches checks a presented token against it.
type InvitationTokens interface {
	Mint() (token, fingerprint string, err error)
	Matches(token, fingerprint string) bool
}
