package ports

import (
	"context"
	"time"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// CreateLessonInput carries the data needed to create a lesson.
type CreateLessonInput struct {
	ActorID     int64
	CourseID    int64
	Title       string
	Status      string
	PublishDate time.Time
	VideoURL    string
}

// UpdateLessonInput is a partial update; nil fields are left unchanged.
type UpdateLessonInput struct {
	ActorID     int64
	LessonID    int64
	Title       *string
	Status      *string
	PublishDate *time.Time
	VideoURL    *string
}

// LessonPage is one page of a lesson listing.
type LessonPage struct {
	Items []*domain.Lesson
	Total int64
}

type LessonService interface {
	Create(ctx context.Context, input CreateLessonInput) (*domain.Lesson, error)
	Get(ctx context.Context, id int64) (*domain.Lesson, error)
	List(ctx context.Context, filter LessonFilter) (*LessonPage, error)
	Update(ctx context.Context, input UpdateLessonInput) (*domain.Lesson, error)
	Delete(ctx context.Context, actorID, lessonID int64) error
}
