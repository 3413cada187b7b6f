package ports

import (
	"context"
	"time"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// InvitationFilter narrows an invitation listing.
type InvitationFilter struct {
	CourseID int64
	Email    string
	Status   string
}

// InvitationRepository defines persistence operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error)
	FindByID(ctx context.Context, id int64) (*domain.Invitation, error)
	// FindPending returns the pending invitation for (courseID, email), or
	// domain.ErrInvitationNotFound.
	FindPending(ctx context.Context, courseID int64, email string) (*domain.Invitation, error)
	List(ctx context.Context, filter InvitationFilter) ([]*domain.Invitation, error)
	// Transition moves the invitation from status from to status to, stamping at.
	// The write is conditional on the stored status still being from; otherwise
	// it returns domain.ErrInvitationNotPending and changes nothing.
	Transition(ctx context.Context, id int64, from, to domain.InvitationStatus, at time.Time) (*domain.Invitation, error)
	DeleteByCourse(ctx context.Context, courseID int64) error
}
