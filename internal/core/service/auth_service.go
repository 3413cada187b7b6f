package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

// AuthService implements registration, login and logout.
type AuthService struct {
	users    ports.UserRepository
	tokens   ports.TokenIssuer
	sessions ports.SessionStore
	metrics  ports.Metrics
	log      zerolog.Logger
}

// NewAuthService wires the auth use cases. sessions may be nil when tokens
// are not revocable; a nil recorder drops metrics.
func NewAuthService(users ports.UserRepository, tokens ports.TokenIssuer, sessions ports.SessionStore, m ports.Metrics, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, sessions: sessions, metrics: orNop(m), log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.NewValidationError("name, email and password are required")
	}
	if !domain.PasswordLongEnough(in.Password) {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.NewValidationError("email is invalid")
	}

	user, err := createUser(ctx, s.users, name, email, in.Password, domain.RoleInstructor)
	if err != nil {
		s.metrics.AuthAttempt("register", outcome(err))
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.metrics.AuthAttempt("register", "success")
	s.log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user registered")

	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if email == "" || password == "" {
		s.metrics.AuthAttempt("login", "rejected")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.AuthAttempt("login", "rejected")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.AuthAttempt("login", "rejected")
		s.log.Debug().Int64("user_id", user.ID).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.metrics.AuthAttempt("login", "success")
	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Logout(ctx context.Context, p *domain.Principal) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	if s.sessions == nil {
		s.log.Debug().Int64("user_id", p.UserID).Msg("logout without session store, token stays valid until expiry")
		return nil
	}
	if err := s.sessions.Revoke(ctx, p.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Int64("user_id", p.UserID).Msg("session revoked")
	return nil
}

// createUser hashes the password and stores a new user.
func createUser(ctx context.Context, repo ports.UserRepository, name, email, password, role string) (*domain.User, error) {
	// Users created without a password cannot log in until one is set.
	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// outcome is the metric label for a failed operation.
func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrAlreadyInstructor),
		errors.Is(err, domain.ErrPendingInvitation),
		errors.Is(err, domain.ErrInvitationNotPending),
		errors.Is(err, domain.ErrCannotRemoveCreator):
		return "conflict"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrInvitationNotFound):
		return "not_found"
	default:
		return "error"
	}
}
