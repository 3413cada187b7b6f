package filestore

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	stored := cloneUser(u)
	stored.ID = r.s.nextID(counterUsers)
	r.s.users[stored.ID] = stored
	if err := r.s.persist(); err != nil {
		delete(r.s.users, stored.ID)
		return nil, err
	}
	return cloneUser(stored), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) List(_ context.Context, f ports.UserFilter) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if f.Email != "" && u.Email != f.Email {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------------------------------------------------------------------------
// Courses
// ---------------------------------------------------------------------------

type CourseRepository struct{ s *Store }

func NewCourseRepository(s *Store) *CourseRepository { return &CourseRepository{s: s} }

func (r *CourseRepository) Create(_ context.Context, c *domain.Course) (*domain.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := cloneCourse(c)
	stored.ID = r.s.nextID(counterCourses)
	r.s.courses[stored.ID] = stored
	if err := r.s.persist(); err != nil {
		delete(r.s.courses, stored.ID)
		return nil, err
	}
	return cloneCourse(stored), nil
}

func (r *CourseRepository) FindByID(_ context.Context, id int64) (*domain.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return cloneCourse(c), nil
}

func matchesCourse(c *domain.Course, f ports.CourseFilter) bool {
	if f.CreatorID != 0 && c.CreatorID != f.CreatorID {
		return false
	}
	if f.MemberID != 0 && !c.Instructors.Has(f.MemberID) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Description), q) {
			return false
		}
	}
	return true
}

func (r *CourseRepository) List(_ context.Context, f ports.CourseFilter) ([]*domain.Course, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Course
	for _, c := range r.s.courses {
		if matchesCourse(c, f) {
			matched = append(matched, cloneCourse(c))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (r *CourseRepository) Update(_ context.Context, c *domain.Course) (*domain.Course, error) {
	return r.mutate(c.ID, func(stored *domain.Course) {
		stored.Name = c.Name
		stored.Description = c.Description
		stored.StartDate = c.StartDate
		stored.EndDate = c.EndDate
		stored.UpdatedAt = c.UpdatedAt
	})
}

func (r *CourseRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.courses[id]
	if !ok {
		return domain.ErrCourseNotFound
	}
	delete(r.s.courses, id)
	if err := r.s.persist(); err != nil {
		r.s.courses[id] = old
		return err
	}
	return nil
}

func (r *CourseRepository) AddInstructor(_ context.Context, courseID, userID int64) (*domain.Course, error) {
	return r.mutate(courseID, func(stored *domain.Course) {
		if stored.Instructors.Add(userID) {
			stored.UpdatedAt = time.Now().UTC()
		}
	})
}

func (r *CourseRepository) RemoveInstructor(_ context.Context, courseID, userID int64) (*domain.Course, error) {
	return r.mutate(courseID, func(stored *domain.Course) {
		if stored.Instructors.Remove(userID) {
			stored.UpdatedAt = time.Now().UTC()
		}
	})
}

// mutate applies fn to the stored course and persists, restoring the previous
// value when the write fails.
func (r *CourseRepository) mutate(id int64, fn func(*domain.Course)) (*domain.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	next := cloneCourse(stored)
	fn(next)
	r.s.courses[id] = next
	if err := r.s.persist(); err != nil {
		r.s.courses[id] = stored
		return nil, err
	}
	return cloneCourse(next), nil
}

// ---------------------------------------------------------------------------
// Lessons
// ---------------------------------------------------------------------------

type LessonRepository struct{ s *Store }

func NewLessonRepository(s *Store) *LessonRepository { return &LessonRepository{s: s} }

func (r *LessonRepository) Create(_ context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := cloneLesson(l)
	stored.ID = r.s.nextID(counterLessons)
	r.s.lessons[stored.ID] = stored
	if err := r.s.persist(); err != nil {
		delete(r.s.lessons, stored.ID)
		return nil, err
	}
	return cloneLesson(stored), nil
}

func (r *LessonRepository) FindByID(_ context.Context, id int64) (*domain.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.lessons[id]
	if !ok {
		return nil, domain.ErrLessonNotFound
	}
	return cloneLesson(l), nil
}

func matchesLesson(l *domain.Lesson, f ports.LessonFilter) bool {
	if f.CourseID != 0 && l.CourseID != f.CourseID {
		return false
	}
	if f.Status != "" && string(l.Status) != f.Status {
		return false
	}
	if f.TitleLike != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(f.TitleLike)) {
		return false
	}
	return true
}

// lessonLess orders by the requested field with ascending id as the tie breaker.
func lessonLess(sortBy string, desc bool) func(a, b *domain.Lesson) bool {
	return func(a, b *domain.Lesson) bool {
		var c int
		switch sortBy {
		case ports.LessonSortTitle:
			c = strings.Compare(a.Title, b.Title)
		case ports.LessonSortPublishDate:
			c = a.PublishDate.Compare(b.PublishDate)
		case ports.LessonSortCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	}
}

func (r *LessonRepository) List(_ context.Context, f ports.LessonFilter) ([]*domain.Lesson, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Lesson
	for _, l := range r.s.lessons {
		if matchesLesson(l, f) {
			matched = append(matched, cloneLesson(l))
		}
	}
	less := lessonLess(f.Sort, f.Desc)
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	return paginate(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (r *LessonRepository) Update(_ context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.lessons[l.ID]
	if !ok {
		return nil, domain.ErrLessonNotFound
	}
	next := cloneLesson(old)
	next.Title = l.Title
	next.Status = l.Status
	next.PublishDate = l.PublishDate
	next.VideoURL = l.VideoURL
	next.UpdatedAt = l.UpdatedAt
	r.s.lessons[l.ID] = next
	if err := r.s.persist(); err != nil {
		r.s.lessons[l.ID] = old
		return nil, err
	}
	return cloneLesson(next), nil
}

func (r *LessonRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.lessons[id]
	if !ok {
		return domain.ErrLessonNotFound
	}
	delete(r.s.lessons, id)
	if err := r.s.persist(); err != nil {
		r.s.lessons[id] = old
		return err
	}
	return nil
}

func (r *LessonRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	removed := map[int64]*domain.Lesson{}
	for id, l := range r.s.lessons {
		if l.CourseID == courseID {
			removed[id] = l
			delete(r.s.lessons, id)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := r.s.persist(); err != nil {
		for id, l := range removed {
			r.s.lessons[id] = l
		}
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Invitations
// ---------------------------------------------------------------------------

type InvitationRepository struct{ s *Store }

func NewInvitationRepository(s *Store) *InvitationRepository { return &InvitationRepository{s: s} }

func (r *InvitationRepository) Create(_ context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if inv.Status == domain.InvitationPending {
		for _, existing := range r.s.invitations {
			if existing.CourseID == inv.CourseID && existing.Email == inv.Email && existing.Status == domain.InvitationPending {
				return nil, domain.ErrPendingInvitation
			}
		}
	}
	stored := cloneInvitation(inv)
	stored.ID = r.s.nextID(counterInvitations)
	r.s.invitations[stored.ID] = stored
	if err := r.s.persist(); err != nil {
		delete(r.s.invitations, stored.ID)
		return nil, err
	}
	return cloneInvitation(stored), nil
}

func (r *InvitationRepository) FindByID(_ context.Context, id int64) (*domain.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	return cloneInvitation(inv), nil
}

func (r *InvitationRepository) FindPending(_ context.Context, courseID int64, email string) (*domain.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, inv := range r.s.invitations {
		if inv.CourseID == courseID && inv.Email == email && inv.Status == domain.InvitationPending {
			return cloneInvitation(inv), nil
		}
	}
	return nil, domain.ErrInvitationNotFound
}

func (r *InvitationRepository) List(_ context.Context, f ports.InvitationFilter) ([]*domain.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Invitation, 0)
	for _, inv := range r.s.invitations {
		if f.CourseID != 0 && inv.CourseID != f.CourseID {
			continue
		}
		if f.Email != "" && inv.Email != f.Email {
			continue
		}
		if f.Status != "" && string(inv.Status) != f.Status {
			continue
		}
		out = append(out, cloneInvitation(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Transition is a compare-and-set on status under the store's write lock.
func (r *InvitationRepository) Transition(_ context.Context, id int64, from, to domain.InvitationStatus, at time.Time) (*domain.Invitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.invitations[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	if old.Status != from {
		return nil, domain.ErrInvitationNotPending
	}

	next := cloneInvitation(old)
	next.Status = to
	switch to {
	case domain.InvitationAccepted:
		next.AcceptedAt = &at
	case domain.InvitationDeclined:
		next.DeclinedAt = &at
	}
	r.s.invitations[id] = next
	if err := r.s.persist(); err != nil {
		r.s.invitations[id] = old
		return nil, err
	}
	return cloneInvitation(next), nil
}

func (r *InvitationRepository) DeleteByCourse(_ context.Context, courseID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	removed := map[int64]*domain.Invitation{}
	for id, inv := range r.s.invitations {
		if inv.CourseID == courseID {
			removed[id] = inv
			delete(r.s.invitations, id)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := r.s.persist(); err != nil {
		for id, inv := range removed {
			r.s.invitations[id] = inv
		}
		return err
	}
	return nil
}
