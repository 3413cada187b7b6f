package domain

import (
	"net/url"
	"time"
)

// LessonStatus is the publication state of a lesson.
type LessonStatus string

const (
	LessonDraft     LessonStatus = "draft"
	LessonPublished LessonStatus = "published"
	LessonArchived  LessonStatus = "archived"
)

func (s LessonStatus) Valid() bool {
	switch s {
	case LessonDraft, LessonPublished, LessonArchived:
		return true
	}
	return false
}

const MinLessonTitleLength = 3

// Lesson belongs to exactly one course.
type Lesson struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Status      LessonStatus `json:"status"`
	PublishDate time.Time    `json:"publish_date"`
	VideoURL    string       `json:"video_url"`
	CourseID    int64        `json:"course_id"`
	CreatorID   int64        `json:"creator_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Validate checks the lesson fields. requireFuture enforces a publish date
// after now, which only applies when the lesson is created.
func (l *Lesson) Validate(now time.Time, requireFuture bool) error {
	if len([]rune(l.Title)) < MinLessonTitleLength {
		return NewValidationError("title must be at least 3 characters")
	}
	if !l.Status.Valid() {
		return NewValidationError("status must be one of: draft published archived")
	}
	if l.PublishDate.IsZero() {
		return NewValidationError("publish_date is required")
	}
	if requireFuture && !l.PublishDate.After(now) {
		return NewValidationError("publish_date must be in the future")
	}
	if !validVideoURL(l.VideoURL) {
		return NewValidationError("video_url must be a valid URL")
	}
	return nil
}

func validVideoURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
