package ports

import (
	"context"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// CreateInvitationInput carries the data needed to invite a co-instructor.
type CreateInvitationInput struct {
	CourseID  int64
	Email     string
	InviterID int64
}

// AcceptInvitationInput proves the right to accept by email or by token.
type AcceptInvitationInput struct {
	InvitationID int64
	Email        string
	Token        string
}

// DeclineInvitationInput identifies who declines. When ActorID is zero the
// caller is trusted (internal use); otherwise the actor must be the invitee
// (by email or token) or the inviter.
type DeclineInvitationInput struct {
	InvitationID int64
	ActorID      int64
	ActorEmail   string
	Token        string
}

type InvitationService interface {
	Create(ctx context.Context, input CreateInvitationInput) (*domain.Invitation, error)
	Accept(ctx context.Context, input AcceptInvitationInput) (*domain.Invitation, error)
	Decline(ctx context.Context, input DeclineInvitationInput) (*domain.Invitation, error)
	List(ctx context.Context, filter InvitationFilter) ([]*domain.Invitation, error)
}
