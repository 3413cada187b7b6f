package ports

import (
	"context"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// CourseFilter carries the query parameters for listing courses.
type CourseFilter struct {
	CreatorID int64  // optional: exact creator
	MemberID  int64  // optional: creator or instructor
	Query     string // optional: case-insensitive substring of name or description
	Page      int    // 1-based
	Limit     int    // 0 = everything
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	Create(ctx context.Context, c *domain.Course) (*domain.Course, error)
	FindByID(ctx context.Context, id int64) (*domain.Course, error)
	// List returns a page of courses matching filter and the total count.
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, int64, error)
	// Update rewrites the editable fields (name, description, dates). The
	// creator and instructor set are left alone.
	Update(ctx context.Context, c *domain.Course) (*domain.Course, error)
	Delete(ctx context.Context, id int64) error

	// AddInstructor unions userID into the instructor set. Adding an existing
	// member is a no-op.
	AddInstructor(ctx context.Context, courseID, userID int64) (*domain.Course, error)
	RemoveInstructor(ctx context.Context, courseID, userID int64) (*domain.Course, error)
}
