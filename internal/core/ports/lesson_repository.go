package ports

import (
	"context"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// Sortable lesson fields.
const (
	LessonSortPublishDate = "publish_date"
	LessonSortTitle       = "title"
	LessonSortID          = "id"
	LessonSortCreatedAt   = "created_at"
)

// LessonFilter carries the query parameters for listing lessons.
type LessonFilter struct {
	CourseID  int64  // optional
	TitleLike string // optional: case-insensitive substring of title
	Status    string // optional
	Sort      string // one of the LessonSort* fields, default id
	Desc      bool
	Page      int // 1-based
	Limit     int // 0 = everything
}

// LessonRepository defines persistence operations for lessons.
type LessonRepository interface {
	Create(ctx context.Context, l *domain.Lesson) (*domain.Lesson, error)
	FindByID(ctx context.Context, id int64) (*domain.Lesson, error)
	List(ctx context.Context, filter LessonFilter) ([]*domain.Lesson, int64, error)
	Update(ctx context.Context, l *domain.Lesson) (*domain.Lesson, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}
