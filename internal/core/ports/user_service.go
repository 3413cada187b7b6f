package ports

import (
	"context"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// CreateUserInput carries the fields accepted by POST /users.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string // defaults to instructor
}

type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
}
