package domain

import "time"

// InvitationStatus represents the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// validTransitions defines the allowed state machine transitions.
// Accepted and declined are terminal.
var validTransitions = map[InvitationStatus][]InvitationStatus{
	InvitationPending: {InvitationAccepted, InvitationDeclined},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s InvitationStatus) CanTransitionTo(next InvitationStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s InvitationStatus) Valid() bool {
	return s == InvitationPending || s == InvitationAccepted || s == InvitationDeclined
}

// Invitation asks the owner of Email to join a course as co-instructor.
// Token is only populated on the value returned at creation; storage keeps TokenHash.
type Invitation struct {
	ID         int64            `json:"id"`
	CourseID   int64            `json:"course_id"`
	Email      string           `json:"email"`
	InviterID  int64            `json:"inviter_id"`
	Status     InvitationStatus `json:"status"`
	Token      string           `json:"token,omitempty"`
	TokenHash  string           `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty"`
	DeclinedAt *time.Time       `json:"declined_at,omitempty"`
}
