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

type LessonService struct {
	lessons    ports.LessonRepository
	courses    ports.CourseRepository
	serializer ports.KeySerializer
	metrics    ports.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

func NewLessonService(
	lessons ports.LessonRepository,
	courses ports.CourseRepository,
	serializer ports.KeySerializer,
	m ports.Metrics,
	log zerolog.Logger,
) *LessonService {
	return &LessonService{
		lessons:    lessons,
		courses:    courses,
		serializer: serializer,
		metrics:    orNop(m),
		log:        log,
		now:        time.Now,
	}
}

// Create adds a lesson to a course the actor teaches.
func (s *LessonService) Create(ctx context.Context, in ports.CreateLessonInput) (*domain.Lesson, error) {
	var created *domain.Lesson
	err := s.serializer.Do(ctx, ports.CourseKey(in.CourseID), func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, in.CourseID)
		if err != nil {
			return err
		}
		if !domain.CanCreateLesson(course, in.ActorID) {
			return domain.ErrForbidden
		}

		now := s.now().UTC()
		lesson := &domain.Lesson{
			Title:       strings.TrimSpace(in.Title),
			Status:      domain.LessonStatus(in.Status),
			PublishDate: in.PublishDate,
			VideoURL:    strings.TrimSpace(in.VideoURL),
			CourseID:    course.ID,
			CreatorID:   in.ActorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := lesson.Validate(now, true); err != nil {
			return err
		}

		created, err = s.lessons.Create(ctx, lesson)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LessonMutation("create")
	s.log.Info().Int64("lesson_id", created.ID).Int64("course_id", created.CourseID).Msg("lesson created")
	return created, nil
}

func (s *LessonService) Get(ctx context.Context, id int64) (*domain.Lesson, error) {
	return s.lessons.FindByID(ctx, id)
}

func (s *LessonService) List(ctx context.Context, filter ports.LessonFilter) (*ports.LessonPage, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)
	filter.TitleLike = strings.TrimSpace(filter.TitleLike)

	switch filter.Sort {
	case "":
		filter.Sort = ports.LessonSortID
	case ports.LessonSortID, ports.LessonSortTitle, ports.LessonSortPublishDate, ports.LessonSortCreatedAt:
	default:
		return nil, domain.NewValidationError("_sort must be one of: id title publish_date created_at")
	}
	if filter.Status != "" && !domain.LessonStatus(filter.Status).Valid() {
		return nil, domain.NewValidationError("status must be one of: draft published archived")
	}

	items, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return &ports.LessonPage{Items: items, Total: total}, nil
}

// Update applies a partial edit. A changed publish date must lie in the future.
func (s *LessonService) Update(ctx context.Context, in ports.UpdateLessonInput) (*domain.Lesson, error) {
	current, err := s.lessons.FindByID(ctx, in.LessonID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Lesson
	err = s.serializer.Do(ctx, ports.CourseKey(current.CourseID), func(ctx context.Context) error {
		lesson, course, err := s.loadForWrite(ctx, in.LessonID, in.ActorID)
		if err != nil {
			return err
		}

		dateChanged := false
		if in.Title != nil {
			lesson.Title = strings.TrimSpace(*in.Title)
		}
		if in.Status != nil {
			lesson.Status = domain.LessonStatus(*in.Status)
		}
		if in.PublishDate != nil && !in.PublishDate.Equal(lesson.PublishDate) {
			lesson.PublishDate = *in.PublishDate
			dateChanged = true
		}
		if in.VideoURL != nil {
			lesson.VideoURL = strings.TrimSpace(*in.VideoURL)
		}

		now := s.now().UTC()
		if err := lesson.Validate(now, dateChanged); err != nil {
			return err
		}
		lesson.UpdatedAt = now

		updated, err = s.lessons.Update(ctx, lesson)
		if err != nil {
			return err
		}
		s.log.Info().Int64("lesson_id", lesson.ID).Int64("course_id", course.ID).Int64("actor_id", in.ActorID).Msg("lesson updated")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LessonMutation("update")
	return updated, nil
}

func (s *LessonService) Delete(ctx context.Context, actorID, lessonID int64) error {
	current, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return err
	}

	err = s.serializer.Do(ctx, ports.CourseKey(current.CourseID), func(ctx context.Context) error {
		if _, _, err := s.loadForWrite(ctx, lessonID, actorID); err != nil {
			return err
		}
		return s.lessons.Delete(ctx, lessonID)
	})
	if err != nil {
		return err
	}

	s.metrics.LessonMutation("delete")
	s.log.Info().Int64("lesson_id", lessonID).Int64("actor_id", actorID).Msg("lesson deleted")
	return nil
}

// loadForWrite re-reads the lesson and its course inside the serialized
// section and checks that actorID may change it.
func (s *LessonService) loadForWrite(ctx context.Context, lessonID, actorID int64) (*domain.Lesson, *domain.Course, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.courses.FindByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if !domain.CanEditOrDeleteLesson(lesson, course, actorID) {
		return nil, nil, domain.ErrForbidden
	}
	return lesson, course, nil
}
