package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := *u
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.User{}
	for _, u := range r.byID {
		if f.Email != "" && u.Email != f.Email {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubCourseRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Course
}

func newStubCourseRepo() *stubCourseRepo {
	return &stubCourseRepo{byID: make(map[int64]*domain.Course)}
}

func cloneCourse(c *domain.Course) *domain.Course {
	clone := *c
	clone.Instructors = c.Instructors.Clone()
	return &clone
}

func (r *stubCourseRepo) Create(_ context.Context, c *domain.Course) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := cloneCourse(c)
	clone.ID = r.nextID
	r.byID[clone.ID] = clone
	return cloneCourse(clone), nil
}

func (r *stubCourseRepo) FindByID(_ context.Context, id int64) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) List(_ context.Context, f ports.CourseFilter) ([]*domain.Course, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Course
	for _, c := range r.byID {
		if f.CreatorID != 0 && c.CreatorID != f.CreatorID {
			continue
		}
		if f.MemberID != 0 && !domain.IsInstructorOf(c, f.MemberID) {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, cloneCourse(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubCourseRepo) Update(_ context.Context, c *domain.Course) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[c.ID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	stored.Name, stored.Description = c.Name, c.Description
	stored.StartDate, stored.EndDate = c.StartDate, c.EndDate
	stored.UpdatedAt = c.UpdatedAt
	return cloneCourse(stored), nil
}

func (r *stubCourseRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCourseRepo) AddInstructor(_ context.Context, courseID, userID int64) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	c.Instructors.Add(userID)
	return cloneCourse(c), nil
}

func (r *stubCourseRepo) RemoveInstructor(_ context.Context, courseID, userID int64) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	c.Instructors.Remove(userID)
	return cloneCourse(c), nil
}

type stubLessonRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Lesson
}

func newStubLessonRepo() *stubLessonRepo {
	return &stubLessonRepo{byID: make(map[int64]*domain.Lesson)}
}

func (r *stubLessonRepo) Create(_ context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *l
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubLessonRepo) FindByID(_ context.Context, id int64) (*domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLessonNotFound
	}
	clone := *l
	return &clone, nil
}

// List honours the course and status filters and sorts by id.
func (r *stubLessonRepo) List(_ context.Context, f ports.LessonFilter) ([]*domain.Lesson, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Lesson
	for _, l := range r.byID {
		if f.CourseID != 0 && l.CourseID != f.CourseID {
			continue
		}
		if f.Status != "" && string(l.Status) != f.Status {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubLessonRepo) Update(_ context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[l.ID]; !ok {
		return nil, domain.ErrLessonNotFound
	}
	clone := *l
	r.byID[l.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubLessonRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrLessonNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubLessonRepo) DeleteByCourse(_ context.Context, courseID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.byID {
		if l.CourseID == courseID {
			delete(r.byID, id)
		}
	}
	return nil
}

type stubInvitationRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Invitation
}

func newStubInvitationRepo() *stubInvitationRepo {
	return &stubInvitationRepo{byID: make(map[int64]*domain.Invitation)}
}

func (r *stubInvitationRepo) Create(_ context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *inv
	clone.ID = r.nextID
	clone.Token = ""
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubInvitationRepo) FindByID(_ context.Context, id int64) (*domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	clone := *inv
	return &clone, nil
}

func (r *stubInvitationRepo) FindPending(_ context.Context, courseID int64, email string) (*domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byID {
		if inv.CourseID == courseID && inv.Email == email && inv.Status == domain.InvitationPending {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, domain.ErrInvitationNotFound
}

func (r *stubInvitationRepo) List(_ context.Context, f ports.InvitationFilter) ([]*domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Invitation{}
	for _, inv := range r.byID {
		if f.CourseID != 0 && inv.CourseID != f.CourseID {
			continue
		}
		if f.Email != "" && inv.Email != f.Email {
			continue
		}
		if f.Status != "" && string(inv.Status) != f.Status {
			continue
		}
		clone := *inv
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubInvitationRepo) Transition(_ context.Context, id int64, from, to domain.InvitationStatus, at time.Time) (*domain.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	if inv.Status != from {
		return nil, domain.ErrInvitationNotPending
	}
	inv.Status = to
	switch to {
	case domain.InvitationAccepted:
		inv.AcceptedAt = &at
	case domain.InvitationDeclined:
		inv.DeclinedAt = &at
	}
	clone := *inv
	return &clone, nil
}

func (r *stubInvitationRepo) DeleteByCourse(_ context.Context, courseID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range r.byID {
		if inv.CourseID == courseID {
			delete(r.byID, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Serializer, token and session stubs
// ---------------------------------------------------------------------------

// keyLock serializes by key with one mutex per key.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

func (k *keyLock) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(ctx)
}

type stubTokens struct {
	issued []int64
	err    error
}

func (t *stubTokens) Issue(_ context.Context, u *domain.User) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	t.issued = append(t.issued, u.ID)
	return "token-for-" + u.Email, nil
}

type stubSessions struct {
	revoked []string
}

func (s *stubSessions) Save(context.Context, string, int64, time.Duration) error { return nil }
func (s *stubSessions) Exists(context.Context, string) (bool, error)             { return true, nil }
func (s *stubSessions) Revoke(_ context.Context, id string) error {
	s.revoked = append(s.revoked, id)
	return nil
}

// stubInvitationTokens mints sequential tokens with a reversible fingerprint.
type stubInvitationTokens struct {
	mu sync.Mutex
	n  int
}

func (t *stubInvitationTokens) Mint() (string, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	token := fmt.Sprintf("invite-token-%d", t.n)
	return token, "fp:" + token, nil
}

func (t *stubInvitationTokens) Matches(token, fingerprint string) bool {
	return token != "" && "fp:"+token == fingerprint
}

// stubMetrics counts recorded outcomes as "kind/action/result".
type stubMetrics struct {
	mu     sync.Mutex
	events []string
}

func (m *stubMetrics) add(e string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *stubMetrics) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *stubMetrics) AuthAttempt(action, result string) { m.add("auth/" + action + "/" + result) }
func (m *stubMetrics) InvitationTransition(action, result string) {
	m.add("invitation/" + action + "/" + result)
}
func (m *stubMetrics) CourseMutation(action string) { m.add("course/" + action) }
func (m *stubMetrics) LessonMutation(action string) { m.add("lesson/" + action) }

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

// fixture wires every service over shared in-memory repositories.
type fixture struct {
	users       *stubUserRepo
	courses     *stubCourseRepo
	lessons     *stubLessonRepo
	invitations *stubInvitationRepo
	metrics     *stubMetrics

	courseSvc     *CourseService
	lessonSvc     *LessonService
	invitationSvc *InvitationService
	now           time.Time
}

func newFixture() *fixture {
	f := &fixture{
		users:       newStubUserRepo(),
		courses:     newStubCourseRepo(),
		lessons:     newStubLessonRepo(),
		invitations: newStubInvitationRepo(),
		metrics:     &stubMetrics{},
		now:         time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	lock := newKeyLock()
	log := zerolog.Nop()
	clock := func() time.Time { return f.now }

	f.courseSvc = NewCourseService(f.courses, f.lessons, f.invitations, f.users, lock, f.metrics, log)
	f.courseSvc.now = clock
	f.lessonSvc = NewLessonService(f.lessons, f.courses, lock, f.metrics, log)
	f.lessonSvc.now = clock
	f.invitationSvc = NewInvitationService(f.invitations, f.courses, f.users, lock, &stubInvitationTokens{}, f.metrics, log)
	f.invitationSvc.now = clock
	return f
}

func (f *fixture) user(email string) *domain.User {
	u, err := f.users.Create(context.Background(), &domain.User{Name: email, Email: email, Role: domain.RoleInstructor})
	if err != nil {
		panic(err)
	}
	return u
}

func (f *fixture) course(creatorID int64) *domain.Course {
	c, err := f.courseSvc.Create(context.Background(), ports.CreateCourseInput{
		ActorID:   creatorID,
		Name:      "Go for backend developers",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		panic(err)
	}
	return c
}
