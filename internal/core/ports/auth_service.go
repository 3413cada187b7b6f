package ports

import (
	"context"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// RegisterInput carries the self-service registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, principal *domain.Principal) error
}
