package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

// InvitationService runs the co-instructor invitation lifecycle:
// pending -> accepted | declined, both terminal.
type InvitationService struct {
	invitations ports.InvitationRepository
	courses     ports.CourseRepository
	users       ports.UserRepository
	serializer  ports.KeySerializer
	tokens      ports.InvitationTokens
	metrics     ports.Metrics
	log         zerolog.Logger
	now         func() time.Time
}

func NewInvitationService(
	invitations ports.InvitationRepository,
	courses ports.CourseRepository,
	users ports.UserRepository,
	serializer ports.KeySerializer,
	tokens ports.InvitationTokens,
	m ports.Metrics,
	log zerolog.Logger,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		courses:     courses,
		users:       users,
		serializer:  serializer,
		tokens:      tokens,
		metrics:     orNop(m),
		log:         log,
		now:         time.Now,
	}
}

// Create invites the user registered under email to co-teach a course.
// The returned invitation carries the raw token; only its fingerprint is stored.
func (s *InvitationService) Create(ctx context.Context, in ports.CreateInvitationInput) (*domain.Invitation, error) {
	email := strings.TrimSpace(in.Email)
	if in.CourseID <= 0 || email == "" || in.InviterID <= 0 {
		return nil, domain.NewValidationError("course_id, email and inviter_id are required")
	}

	var created *domain.Invitation
	err := s.serializer.Do(ctx, ports.CourseKey(in.CourseID), func(ctx context.Context) error {
		// 1. Course exists and the inviter owns it.
		course, err := s.courses.FindByID(ctx, in.CourseID)
		if err != nil {
			return err
		}
		if !domain.CanInvite(course, in.InviterID) {
			s.log.Warn().Int64("course_id", course.ID).Int64("inviter_id", in.InviterID).Msg("invitation rejected: inviter is not the course creator")
			return domain.ErrForbidden
		}

		// 2. Target is a registered user who is not teaching the course yet.
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if domain.IsInstructorOf(course, user.ID) {
			return domain.ErrAlreadyInstructor
		}

		// 3. At most one pending invitation per (course, email).
		_, err = s.invitations.FindPending(ctx, course.ID, email)
		switch {
		case err == nil:
			return domain.ErrPendingInvitation
		case !errors.Is(err, domain.ErrInvitationNotFound):
			return fmt.Errorf("check pending invitation: %w", err)
		}

		// 4. Mint the token and persist.
		token, fingerprint, err := s.tokens.Mint()
		if err != nil {
			return err
		}
		inv := &domain.Invitation{
			CourseID:  course.ID,
			Email:     email,
			InviterID: in.InviterID,
			Status:    domain.InvitationPending,
			TokenHash: fingerprint,
			CreatedAt: s.now().UTC(),
		}
		created, err = s.invitations.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		created.Token = token
		return nil
	})
	s.record("create", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("invitation_id", created.ID).
		Int64("course_id", created.CourseID).
		Str("email", created.Email).
		Msg("invitation created")
	return created, nil
}

// Accept resolves a pending invitation and adds the invitee to the course's
// instructors. The caller proves the right to accept by email or by token.
//
// Membership is written before the invitation is marked accepted, so a failure
// in between leaves a pending invitation that can be retried; the union is
// idempotent.
func (s *InvitationService) Accept(ctx context.Context, in ports.AcceptInvitationInput) (*domain.Invitation, error) {
	current, err := s.invitations.FindByID(ctx, in.InvitationID)
	if err != nil {
		s.record("accept", err)
		return nil, err
	}

	var accepted *domain.Invitation
	err = s.serializer.Do(ctx, ports.CourseKey(current.CourseID), func(ctx context.Context) error {
		inv, err := s.invitations.FindByID(ctx, in.InvitationID)
		if err != nil {
			return err
		}
		if !inv.Status.CanTransitionTo(domain.InvitationAccepted) {
			return domain.ErrInvitationNotPending
		}
		if !s.ownsInvitation(inv, in.Email, in.Token) {
			s.log.Warn().Int64("invitation_id", inv.ID).Msg("invitation accept rejected: email and token mismatch")
			return domain.ErrForbidden
		}

		user, err := s.users.FindByEmail(ctx, inv.Email)
		if err != nil {
			return err
		}
		course, err := s.courses.FindByID(ctx, inv.CourseID)
		if err != nil {
			return err
		}

		if _, err := s.courses.AddInstructor(ctx, course.ID, user.ID); err != nil {
			return fmt.Errorf("add instructor: %w", err)
		}

		accepted, err = s.invitations.Transition(ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted, s.now().UTC())
		return err
	})
	s.record("accept", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("invitation_id", accepted.ID).
		Int64("course_id", accepted.CourseID).
		Str("email", accepted.Email).
		Msg("invitation accepted")
	return accepted, nil
}

// Decline resolves a pending invitation without touching course membership.
func (s *InvitationService) Decline(ctx context.Context, in ports.DeclineInvitationInput) (*domain.Invitation, error) {
	current, err := s.invitations.FindByID(ctx, in.InvitationID)
	if err != nil {
		s.record("decline", err)
		return nil, err
	}

	var declined *domain.Invitation
	err = s.serializer.Do(ctx, ports.CourseKey(current.CourseID), func(ctx context.Context) error {
		inv, err := s.invitations.FindByID(ctx, in.InvitationID)
		if err != nil {
			return err
		}
		if !inv.Status.CanTransitionTo(domain.InvitationDeclined) {
			return domain.ErrInvitationNotPending
		}
		if in.ActorID != 0 && in.ActorID != inv.InviterID && !s.ownsInvitation(inv, in.ActorEmail, in.Token) {
			s.log.Warn().Int64("invitation_id", inv.ID).Int64("actor_id", in.ActorID).Msg("invitation decline rejected")
			return domain.ErrForbidden
		}

		declined, err = s.invitations.Transition(ctx, inv.ID, domain.InvitationPending, domain.InvitationDeclined, s.now().UTC())
		return err
	})
	s.record("decline", err)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("invitation_id", declined.ID).
		Int64("course_id", declined.CourseID).
		Msg("invitation declined")
	return declined, nil
}

func (s *InvitationService) List(ctx context.Context, filter ports.InvitationFilter) ([]*domain.Invitation, error) {
	if filter.Status != "" && !domain.InvitationStatus(filter.Status).Valid() {
		return nil, domain.NewValidationError("status must be one of: pending accepted declined")
	}

	items, err := s.invitations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	for _, inv := range items {
		inv.Token = ""
	}
	return items, nil
}

// ownsInvitation reports whether email or token identifies the invitee.
func (s *InvitationService) ownsInvitation(inv *domain.Invitation, email, token string) bool {
	if email != "" && email == inv.Email {
		return true
	}
	return s.tokens.Matches(token, inv.TokenHash)
}

func (s *InvitationService) record(action string, err error) {
	result := "success"
	if err != nil {
		result = outcome(err)
	}
	s.metrics.InvitationTransition(action, result)
}
