package ports

import (
	"context"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// UserFilter narrows a user listing. Zero values mean "no filter".
type UserFilter struct {
	Email string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create assigns the next id and stores the user. Returns domain.ErrUserExists
	// when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByEmail matches the email exactly as stored.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
}
