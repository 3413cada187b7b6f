package ports

import (
	"context"
	"fmt"
)

// KeySerializer runs fn so that no two calls with the same key overlap.
type KeySerializer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// CourseKey is the serialization key shared by every mutation of one course.
func CourseKey(courseID int64) string {
	return fmt.Sprintf("course:%d", courseID)
}
