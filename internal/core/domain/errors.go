package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")

	ErrUserNotFound       = errors.New("user not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrInvitationNotFound = errors.New("invitation not found")

	ErrUserExists           = errors.New("email already registered")
	ErrAlreadyInstructor    = errors.New("user is already an instructor of this course")
	ErrPendingInvitation    = errors.New("a pending invitation already exists for this email")
	ErrInvitationNotPending = errors.New("invitation is not pending")
	ErrCannotRemoveCreator  = errors.New("the course creator cannot be removed from its instructors")

	// ErrUnavailable means the request could not be served right now, e.g.
	// during shutdown. Retrying later may succeed.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError describes a rejected input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }
