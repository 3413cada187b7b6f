package ports

import (
	"context"
	"time"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// CreateCourseInput carries the data needed to create a course. ActorID
// becomes the creator and first instructor.
type CreateCourseInput struct {
	ActorID     int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// UpdateCourseInput is a partial update; nil fields are left unchanged.
type UpdateCourseInput struct {
	ActorID     int64
	CourseID    int64
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CoursePage is one page of a course listing.
type CoursePage struct {
	Items []*domain.Course
	Total int64
}

type CourseService interface {
	Create(ctx context.Context, input CreateCourseInput) (*domain.Course, error)
	Get(ctx context.Context, id int64) (*domain.Course, error)
	List(ctx context.Context, filter CourseFilter) (*CoursePage, error)
	Update(ctx context.Context, input UpdateCourseInput) (*domain.Course, error)
	Delete(ctx context.Context, actorID, courseID int64) error
	AddInstructor(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error)
	RemoveInstructor(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error)
}
