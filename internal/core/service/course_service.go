package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

// CourseService owns course CRUD and instructor membership. Every mutation of
// a course runs under its serializer key.
type CourseService struct {
	courses     ports.CourseRepository
	lessons     ports.LessonRepository
	invitations ports.InvitationRepository
	users       ports.UserRepository
	serializer  ports.KeySerializer
	metrics     ports.Metrics
	log         zerolog.Logger
	now         func() time.Time
}

func NewCourseService(
	courses ports.CourseRepository,
	lessons ports.LessonRepository,
	invitations ports.InvitationRepository,
	users ports.UserRepository,
	serializer ports.KeySerializer,
	m ports.Metrics,
	log zerolog.Logger,
) *CourseService {
	return &CourseService{
		courses:     courses,
		lessons:     lessons,
		invitations: invitations,
		users:       users,
		serializer:  serializer,
		metrics:     orNop(m),
		log:         log,
		now:         time.Now,
	}
}

// Create stores a new course owned by the actor, who is also its first instructor.
func (s *CourseService) Create(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	if in.ActorID <= 0 {
		return nil, domain.ErrUnauthorized
	}

	now := s.now().UTC()
	course := &domain.Course{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatorID:   in.ActorID,
		Instructors: domain.NewIDSet(in.ActorID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := course.Validate(); err != nil {
		return nil, err
	}

	created, err := s.courses.Create(ctx, course)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.metrics.CourseMutation("create")
	s.log.Info().Int64("course_id", created.ID).Int64("creator_id", in.ActorID).Msg("course created")
	return created, nil
}

func (s *CourseService) Get(ctx context.Context, id int64) (*domain.Course, error) {
	return s.courses.FindByID(ctx, id)
}

func (s *CourseService) List(ctx context.Context, filter ports.CourseFilter) (*ports.CoursePage, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	filter.Query = strings.TrimSpace(filter.Query)

	items, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return &ports.CoursePage{Items: items, Total: total}, nil
}

// Update applies a partial edit. Only the creator may edit.
func (s *CourseService) Update(ctx context.Context, in ports.UpdateCourseInput) (*domain.Course, error) {
	var updated *domain.Course
	err := s.serializer.Do(ctx, ports.CourseKey(in.CourseID), func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, in.CourseID)
		if err != nil {
			return err
		}
		if !domain.CanEditCourse(course, in.ActorID) {
			return domain.ErrForbidden
		}

		if in.Name != nil {
			course.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			course.Description = strings.TrimSpace(*in.Description)
		}
		if in.StartDate != nil {
			course.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			course.EndDate = *in.EndDate
		}
		if err := course.Validate(); err != nil {
			return err
		}
		course.UpdatedAt = s.now().UTC()

		updated, err = s.courses.Update(ctx, course)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CourseMutation("update")
	s.log.Info().Int64("course_id", in.CourseID).Int64("actor_id", in.ActorID).Msg("course updated")
	return updated, nil
}

// Delete removes a course together with its lessons and invitations.
func (s *CourseService) Delete(ctx context.Context, actorID, courseID int64) error {
	err := s.serializer.Do(ctx, ports.CourseKey(courseID), func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !domain.CanDeleteCourse(course, actorID) {
			return domain.ErrForbidden
		}

		// Children first: an interrupted delete leaves an empty course, never orphans.
		if err := s.lessons.DeleteByCourse(ctx, courseID); err != nil {
			return fmt.Errorf("delete course lessons: %w", err)
		}
		if err := s.invitations.DeleteByCourse(ctx, courseID); err != nil {
			return fmt.Errorf("delete course invitations: %w", err)
		}
		return s.courses.Delete(ctx, courseID)
	})
	if err != nil {
		return err
	}

	s.metrics.CourseMutation("delete")
	s.log.Info().Int64("course_id", courseID).Int64("actor_id", actorID).Msg("course deleted")
	return nil
}

// AddInstructor lets the creator add an existing user directly, without an
// invitation. Adding a current member is a no-op.
func (s *CourseService) AddInstructor(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error) {
	var updated *domain.Course
	err := s.serializer.Do(ctx, ports.CourseKey(courseID), func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !domain.IsCourseOwner(course, actorID) {
			return domain.ErrForbidden
		}
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return err
		}
		if domain.IsInstructorOf(course, userID) {
			updated = course
			return nil
		}

		updated, err = s.courses.AddInstructor(ctx, courseID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CourseMutation("add_instructor")
	s.log.Info().Int64("course_id", courseID).Int64("user_id", userID).Msg("instructor added")
	return updated, nil
}

// RemoveInstructor lets the creator drop a co-instructor. The creator itself
// can never be removed.
func (s *CourseService) RemoveInstructor(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error) {
	var updated *domain.Course
	err := s.serializer.Do(ctx, ports.CourseKey(courseID), func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			return err
		}
		if !domain.IsCourseOwner(course, actorID) {
			return domain.ErrForbidden
		}
		if !domain.CanRemoveInstructor(course, userID) {
			return domain.ErrCannotRemoveCreator
		}

		updated, err = s.courses.RemoveInstructor(ctx, courseID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CourseMutation("remove_instructor")
	s.log.Info().Int64("course_id", courseID).Int64("user_id", userID).Msg("instructor removed")
	return updated, nil
}
