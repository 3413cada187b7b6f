package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

func TestInvitationHandler_Create_ReturnsToken(t *testing.T) {
	stub := &stubInvitationService{
		createFn: func(ctx context.Context, in ports.CreateInvitationInput) (*domain.Invitation, error) {
			if in.InviterID != 9 || in.CourseID != 4 || in.Email != "bob@example.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Invitation{ID: 1, CourseID: 4, Email: in.Email, InviterID: 9, Status: domain.InvitationPending, Token: "raw-token"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/invitations", `{"course_id":4,"email":"bob@example.com"}`, alice())

	if err := NewInvitationHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var inv domain.Invitation
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if inv.Token != "raw-token" || inv.Status != domain.InvitationPending {
		t.Fatalf("unexpected invitation: %+v", inv)
	}
}

func TestInvitationHandler_Create_ForeignInviter(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/invitations", `{"course_id":4,"email":"bob@example.com","inviter_id":5}`, alice())

	if err := NewInvitationHandler(&stubInvitationService{}).Create(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestInvitationHandler_List(t *testing.T) {
	stub := &stubInvitationService{
		listFn: func(ctx context.Context, f ports.InvitationFilter) ([]*domain.Invitation, error) {
			want := ports.InvitationFilter{CourseID: 4, Email: "bob@example.com", Status: "pending"}
			if f != want {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return []*domain.Invitation{{ID: 1}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/invitations?course_id=4&email=bob@example.com&status=pending", "", alice())

	if err := NewInvitationHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInvitationHandler_Accept_UsesPrincipalEmail(t *testing.T) {
	stub := &stubInvitationService{
		acceptFn: func(ctx context.Context, in ports.AcceptInvitationInput) (*domain.Invitation, error) {
			if in.InvitationID != 7 || in.Email != "alice@example.com" || in.Token != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Invitation{ID: 7, Status: domain.InvitationAccepted}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/invitations/7/accept", "", alice(), "id", "7")

	if err := NewInvitationHandler(stub).Accept(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp resolveInvitationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.OK || resp.Invitation == nil || resp.Invitation.Status != domain.InvitationAccepted {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
}

func TestInvitationHandler_Accept_PassesToken(t *testing.T) {
	stub := &stubInvitationService{
		acceptFn: func(ctx context.Context, in ports.AcceptInvitationInput) (*domain.Invitation, error) {
			if in.Token != "raw-token" {
				t.Fatalf("expected token, got %+v", in)
			}
			return &domain.Invitation{ID: 7, Status: domain.InvitationAccepted}, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/invitations/7/accept", `{"token":"raw-token"}`, alice(), "id", "7")

	if err := NewInvitationHandler(stub).Accept(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestInvitationHandler_Accept_ForeignEmail(t *testing.T) {
	stub := &stubInvitationService{
		acceptFn: func(ctx context.Context, in ports.AcceptInvitationInput) (*domain.Invitation, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(http.MethodPost, "/invitations/7/accept", `{"email":"mallory@example.com"}`, alice(), "id", "7")

	if err := NewInvitationHandler(stub).Accept(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestInvitationHandler_Decline_PassesActor(t *testing.T) {
	stub := &stubInvitationService{
		declineFn: func(ctx context.Context, in ports.DeclineInvitationInput) (*domain.Invitation, error) {
			if in.InvitationID != 7 || in.ActorID != 9 || in.ActorEmail != "alice@example.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil, domain.ErrInvitationNotPending
		},
	}
	c, _ := newContext(http.MethodPost, "/invitations/7/decline", `{}`, alice(), "id", "7")

	if err := NewInvitationHandler(stub).Decline(c); !errors.Is(err, domain.ErrInvitationNotPending) {
		t.Fatalf("expected ErrInvitationNotPending, got %v", err)
	}
}
