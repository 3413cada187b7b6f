package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Create stores a user on behalf of a client (the instructor picker). Only the
// email is mandatory; the role defaults to instructor.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.NewValidationError("email is invalid")
	}

	role := in.Role
	if role == "" {
		role = domain.RoleInstructor
	}
	if !domain.ValidRole(role) {
		return nil, domain.NewValidationError("role must be one of: instructor admin")
	}
	if in.Password != "" && !domain.PasswordLongEnough(in.Password) {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}

	user, err := createUser(ctx, s.repo, strings.TrimSpace(in.Name), email, in.Password, role)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user created")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	return s.repo.List(ctx, filter)
}
