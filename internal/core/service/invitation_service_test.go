package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

func TestInvitationCreate_ReturnsTokenOnce(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	f.user("guest@example.com")
	course := f.course(owner.ID)

	inv, err := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: "guest@example.com", InviterID: owner.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != domain.InvitationPending {
		t.Errorf("expected pending, got %s", inv.Status)
	}
	if inv.Token != "invite-token-1" {
		t.Errorf("expected minted token, got %q", inv.Token)
	}

	stored, _ := f.invitations.FindByID(context.Background(), inv.ID)
	if stored.Token != "" {
		t.Error("raw token must not be stored")
	}
	if stored.TokenHash != "fp:invite-token-1" {
		t.Errorf("expected token fingerprint to be stored, got %q", stored.TokenHash)
	}
}

func TestInvitation_RecordsOutcomes(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	course := f.course(owner.ID)
	ctx := context.Background()

	inv, err := f.invitationSvc.Create(ctx, ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.invitationSvc.Create(ctx, ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	}); !errors.Is(err, domain.ErrPendingInvitation) {
		t.Fatalf("expected ErrPendingInvitation, got %v", err)
	}
	if _, err := f.invitationSvc.Accept(ctx, ports.AcceptInvitationInput{InvitationID: inv.ID, Token: inv.Token}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	want := []string{
		"course/create",
		"invitation/create/success",
		"invitation/create/conflict",
		"invitation/accept/success",
	}
	got := f.metrics.recorded()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestInvitationCreate_Rejections(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	coInstructor := f.user("co@example.com")
	f.user("guest@example.com")
	course := f.course(owner.ID)
	if _, err := f.courses.AddInstructor(context.Background(), course.ID, coInstructor.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   ports.CreateInvitationInput
		wantErr error
	}{
		{"missing fields", ports.CreateInvitationInput{CourseID: course.ID, InviterID: owner.ID}, domain.ErrValidation},
		{"unknown course", ports.CreateInvitationInput{CourseID: 999, Email: "guest@example.com", InviterID: owner.ID}, domain.ErrCourseNotFound},
		{"co-instructor cannot invite", ports.CreateInvitationInput{CourseID: course.ID, Email: "guest@example.com", InviterID: coInstructor.ID}, domain.ErrForbidden},
		{"unregistered email", ports.CreateInvitationInput{CourseID: course.ID, Email: "nobody@example.com", InviterID: owner.ID}, domain.ErrUserNotFound},
		{"already instructor", ports.CreateInvitationInput{CourseID: course.ID, Email: "co@example.com", InviterID: owner.ID}, domain.ErrAlreadyInstructor},
		{"creator is already instructor", ports.CreateInvitationInput{CourseID: course.ID, Email: "owner@example.com", InviterID: owner.ID}, domain.ErrAlreadyInstructor},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.invitationSvc.Create(context.Background(), tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestInvitationCreate_DuplicatePending(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	f.user("guest@example.com")
	course := f.course(owner.ID)
	in := ports.CreateInvitationInput{CourseID: course.ID, Email: "guest@example.com", InviterID: owner.ID}

	if _, err := f.invitationSvc.Create(context.Background(), in); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	_, err := f.invitationSvc.Create(context.Background(), in)
	if !errors.Is(err, domain.ErrPendingInvitation) {
		t.Fatalf("expected ErrPendingInvitation, got %v", err)
	}
}

func TestInvitationCreate_ReinviteAfterDecline(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	f.user("guest@example.com")
	course := f.course(owner.ID)
	in := ports.CreateInvitationInput{CourseID: course.ID, Email: "guest@example.com", InviterID: owner.ID}

	first, err := f.invitationSvc.Create(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{InvitationID: first.ID}); err != nil {
		t.Fatal(err)
	}
	second, err := f.invitationSvc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("expected re-invite to succeed, got %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new invitation id")
	}
}

func TestInvitationAccept_ByEmail(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	course := f.course(owner.ID)
	inv, _ := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})

	accepted, err := f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{
		InvitationID: inv.ID, Email: guest.Email,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.Status != domain.InvitationAccepted {
		t.Errorf("expected accepted, got %s", accepted.Status)
	}
	if accepted.AcceptedAt == nil || !accepted.AcceptedAt.Equal(f.now) {
		t.Errorf("expected accepted_at %v, got %v", f.now, accepted.AcceptedAt)
	}

	c, _ := f.courses.FindByID(context.Background(), course.ID)
	if !c.Instructors.Has(guest.ID) {
		t.Error("expected guest to be an instructor after accept")
	}
	if !c.Instructors.Has(owner.ID) {
		t.Error("creator must stay an instructor")
	}
}

func TestInvitationAccept_ByToken(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	course := f.course(owner.ID)
	inv, _ := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})

	_, err := f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{
		InvitationID: inv.ID, Email: "someone-else@example.com", Token: inv.Token,
	})
	if err != nil {
		t.Fatalf("expected token to prove ownership, got %v", err)
	}
	c, _ := f.courses.FindByID(context.Background(), course.ID)
	if !c.Instructors.Has(guest.ID) {
		t.Error("expected the invited user, not the caller, to join")
	}
}

func TestInvitationAccept_WrongIdentityIsForbidden(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	f.user("intruder@example.com")
	course := f.course(owner.ID)
	inv, _ := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})

	_, err := f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{
		InvitationID: inv.ID, Email: "intruder@example.com", Token: "not-the-token",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	stored, _ := f.invitations.FindByID(context.Background(), inv.ID)
	if stored.Status != domain.InvitationPending {
		t.Errorf("expected invitation to stay pending, got %s", stored.Status)
	}
	c, _ := f.courses.FindByID(context.Background(), course.ID)
	if len(c.Instructors) != 1 {
		t.Errorf("expected membership unchanged, got %v", c.Instructors.Slice())
	}
}

func TestInvitationAccept_TerminalStates(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	course := f.course(owner.ID)

	accepted, _ := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})
	if _, err := f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{InvitationID: accepted.ID, Email: guest.Email}); err != nil {
		t.Fatal(err)
	}

	_, err := f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{InvitationID: accepted.ID, Email: guest.Email})
	if !errors.Is(err, domain.ErrInvitationNotPending) {
		t.Errorf("second accept: expected ErrInvitationNotPending, got %v", err)
	}
	_, err = f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{InvitationID: accepted.ID})
	if !errors.Is(err, domain.ErrInvitationNotPending) {
		t.Errorf("decline after accept: expected ErrInvitationNotPending, got %v", err)
	}

	_, err = f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{InvitationID: 999, Email: guest.Email})
	if !errors.Is(err, domain.ErrInvitationNotFound) {
		t.Errorf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestInvitationDecline_LeavesMembershipAlone(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	course := f.course(owner.ID)
	inv, _ := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})

	declined, err := f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{
		InvitationID: inv.ID, ActorID: guest.ID, ActorEmail: guest.Email,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if declined.Status != domain.InvitationDeclined || declined.DeclinedAt == nil {
		t.Errorf("expected declined with timestamp, got %+v", declined)
	}

	_, err = f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{InvitationID: inv.ID, Email: guest.Email})
	if !errors.Is(err, domain.ErrInvitationNotPending) {
		t.Fatalf("expected ErrInvitationNotPending, got %v", err)
	}
	c, _ := f.courses.FindByID(context.Background(), course.ID)
	if c.Instructors.Has(guest.ID) {
		t.Error("declined invitee must not join the course")
	}
}

func TestInvitationDecline_Actors(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	stranger := f.user("stranger@example.com")
	course := f.course(owner.ID)

	newInvite := func() *domain.Invitation {
		t.Helper()
		inv, err := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
			CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
		})
		if err != nil {
			t.Fatal(err)
		}
		return inv
	}

	inv := newInvite()
	_, err := f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{
		InvitationID: inv.ID, ActorID: stranger.ID, ActorEmail: stranger.Email,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger: expected ErrForbidden, got %v", err)
	}

	if _, err := f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{
		InvitationID: inv.ID, ActorID: owner.ID, ActorEmail: owner.Email,
	}); err != nil {
		t.Fatalf("inviter withdraw: unexpected error %v", err)
	}

	inv = newInvite()
	if _, err := f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{
		InvitationID: inv.ID, ActorID: stranger.ID, ActorEmail: stranger.Email, Token: inv.Token,
	}); err != nil {
		t.Fatalf("token holder: unexpected error %v", err)
	}
}

func TestInvitationAccept_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	guest := f.user("guest@example.com")
	course := f.course(owner.ID)
	inv, _ := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
		CourseID: course.ID, Email: guest.Email, InviterID: owner.ID,
	})

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.invitationSvc.Accept(context.Background(), ports.AcceptInvitationInput{InvitationID: inv.ID, Email: guest.Email})
			} else {
				_, err = f.invitationSvc.Decline(context.Background(), ports.DeclineInvitationInput{InvitationID: inv.ID})
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInvitationNotPending):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", workers-1, succeeded, conflicts)
	}

	stored, _ := f.invitations.FindByID(context.Background(), inv.ID)
	c, _ := f.courses.FindByID(context.Background(), course.ID)
	if stored.Status == domain.InvitationAccepted && !c.Instructors.Has(guest.ID) {
		t.Error("accepted invitation without membership")
	}
	if stored.Status == domain.InvitationDeclined && c.Instructors.Has(guest.ID) {
		t.Error("declined invitation with membership")
	}
}

func TestInvitationCreate_ConcurrentSingleLivePending(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	f.user("guest@example.com")
	course := f.course(owner.ID)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
				CourseID: course.ID, Email: "guest@example.com", InviterID: owner.ID,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
		} else if !errors.Is(err, domain.ErrPendingInvitation) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one invitation, got %d", created)
	}
}

func TestInvitationList_FiltersAndHidesToken(t *testing.T) {
	f := newFixture()
	owner := f.user("owner@example.com")
	f.user("a@example.com")
	f.user("b@example.com")
	course := f.course(owner.ID)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := f.invitationSvc.Create(context.Background(), ports.CreateInvitationInput{
			CourseID: course.ID, Email: email, InviterID: owner.ID,
		}); err != nil {
			t.Fatal(err)
		}
	}

	items, err := f.invitationSvc.List(context.Background(), ports.InvitationFilter{CourseID: course.ID, Email: "b@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Email != "b@example.com" {
		t.Fatalf("expected only b@example.com, got %+v", items)
	}
	if items[0].Token != "" {
		t.Error("listing must not expose tokens")
	}

	_, err = f.invitationSvc.List(context.Background(), ports.InvitationFilter{Status: "expired"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
}

func TestInvitation_DeclineThenAcceptScenario(t *testing.T) {
	f := newFixture()
	f.users.nextID = 4
	creator := f.user("creator@example.com")
	f.users.nextID = 8
	alice := f.user("alice@example.com")
	if creator.ID != 5 || alice.ID != 9 {
		t.Fatalf("unexpected seeded ids %d %d", creator.ID, alice.ID)
	}
	course := f.course(creator.ID)
	ctx := context.Background()

	first, err := f.invitationSvc.Create(ctx, ports.CreateInvitationInput{CourseID: course.ID, Email: alice.Email, InviterID: creator.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.invitationSvc.Decline(ctx, ports.DeclineInvitationInput{InvitationID: first.ID, ActorID: alice.ID, ActorEmail: alice.Email}); err != nil {
		t.Fatalf("decline: %v", err)
	}
	c, _ := f.courses.FindByID(ctx, course.ID)
	if got := c.Instructors.Slice(); len(got) != 1 || got[0] != 5 {
		t.Fatalf("after decline expected instructors [5], got %v", got)
	}

	second, err := f.invitationSvc.Create(ctx, ports.CreateInvitationInput{CourseID: course.ID, Email: alice.Email, InviterID: creator.ID})
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if _, err := f.invitationSvc.Accept(ctx, ports.AcceptInvitationInput{InvitationID: second.ID, Token: second.Token}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	c, _ = f.courses.FindByID(ctx, course.ID)
	if got := c.Instructors.Slice(); len(got) != 2 || got[0] != 5 || got[1] != 9 {
		t.Fatalf("after accept expected instructors [5 9], got %v", got)
	}
}
