package domain

import "time"

// Course is owned by its creator and taught by its instructor set.
type Course struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatorID   int64     `json:"creator_id"`
	Instructors IDSet     `json:"instructors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	MinCourseNameLength      = 3
	MaxCourseDescriptionSize = 500
)

// Validate checks the field rules shared by create and update.
func (c *Course) Validate() error {
	if len([]rune(c.Name)) < MinCourseNameLength {
		return NewValidationError("name must be at least 3 characters")
	}
	if len([]rune(c.Description)) > MaxCourseDescriptionSize {
		return NewValidationError("description must be at most 500 characters")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return NewValidationError("start_date and end_date are required")
	}
	if !c.EndDate.After(c.StartDate) {
		return NewValidationError("end_date must be after start_date")
	}
	return nil
}
