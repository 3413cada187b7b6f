package handler

import "github.com/coursesphere/coursesphere-api/internal/core/domain"

// errorResponse documents the error envelope for swag; the api package renders it.
type errorResponse struct {
	Message string `json:"message"`
}

// --- Auth / users ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,emailaddr"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required,emailaddr"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Role     string `json:"role"     validate:"omitempty,oneof=instructor admin"`
}

// --- Courses ---

type createCourseRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description" validate:"max=500"`
	StartDate   string `json:"start_date"  validate:"required"`
	EndDate     string `json:"end_date"    validate:"required"`
	// CreatorID is accepted for older clients and must match the caller.
	CreatorID int64 `json:"creator_id,omitempty"`
}

type updateCourseRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=3"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type addInstructorRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// --- Lessons ---

type createLessonRequest struct {
	Title       string `json:"title"        validate:"required,min=3"`
	Status      string `json:"status"       validate:"required,oneof=draft published archived"`
	PublishDate string `json:"publish_date" validate:"required"`
	VideoURL    string `json:"video_url"    validate:"required,url"`
	CourseID    int64  `json:"course_id"    validate:"required,gt=0"`
	CreatorID   int64  `json:"creator_id,omitempty"`
}

type updateLessonRequest struct {
	Title       *string `json:"title"        validate:"omitempty,min=3"`
	Status      *string `json:"status"       validate:"omitempty,oneof=draft published archived"`
	PublishDate *string `json:"publish_date"`
	VideoURL    *string `json:"video_url"    validate:"omitempty,url"`
}

// --- Invitations ---

type createInvitationRequest struct {
	CourseID  int64  `json:"course_id"  validate:"required,gt=0"`
	Email     string `json:"email"      validate:"required,emailaddr"`
	InviterID int64  `json:"inviter_id,omitempty"`
}

// resolveInvitationRequest is the optional body of accept and decline.
type resolveInvitationRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type resolveInvitationResponse struct {
	OK         bool               `json:"ok"`
	Invitation *domain.Invitation `json:"invitation"`
}
