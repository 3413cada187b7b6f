package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coursesphere/coursesphere-api/internal/api/middleware"
	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	logoutFn   func(ctx context.Context, p *domain.Principal) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, p *domain.Principal) error {
	return s.logoutFn(ctx, p)
}

type stubUserService struct {
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	getFn    func(ctx context.Context, id int64) (*domain.User, error)
	listFn   func(ctx context.Context, f ports.UserFilter) ([]*domain.User, error)
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, error) {
	return s.listFn(ctx, f)
}

type stubCourseService struct {
	createFn           func(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error)
	getFn              func(ctx context.Context, id int64) (*domain.Course, error)
	listFn             func(ctx context.Context, f ports.CourseFilter) (*ports.CoursePage, error)
	updateFn           func(ctx context.Context, in ports.UpdateCourseInput) (*domain.Course, error)
	deleteFn           func(ctx context.Context, actorID, courseID int64) error
	addInstructorFn    func(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error)
	removeInstructorFn func(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error)
}

func (s *stubCourseService) Create(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	return s.createFn(ctx, in)
}

func (s *stubCourseService) Get(ctx context.Context, id int64) (*domain.Course, error) {
	return s.getFn(ctx, id)
}

func (s *stubCourseService) List(ctx context.Context, f ports.CourseFilter) (*ports.CoursePage, error) {
	return s.listFn(ctx, f)
}

func (s *stubCourseService) Update(ctx context.Context, in ports.UpdateCourseInput) (*domain.Course, error) {
	return s.updateFn(ctx, in)
}

func (s *stubCourseService) Delete(ctx context.Context, actorID, courseID int64) error {
	return s.deleteFn(ctx, actorID, courseID)
}

func (s *stubCourseService) AddInstructor(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error) {
	return s.addInstructorFn(ctx, actorID, courseID, userID)
}

func (s *stubCourseService) RemoveInstructor(ctx context.Context, actorID, courseID, userID int64) (*domain.Course, error) {
	return s.removeInstructorFn(ctx, actorID, courseID, userID)
}

type stubLessonService struct {
	createFn func(ctx context.Context, in ports.CreateLessonInput) (*domain.Lesson, error)
	getFn    func(ctx context.Context, id int64) (*domain.Lesson, error)
	listFn   func(ctx context.Context, f ports.LessonFilter) (*ports.LessonPage, error)
	updateFn func(ctx context.Context, in ports.UpdateLessonInput) (*domain.Lesson, error)
	deleteFn func(ctx context.Context, actorID, lessonID int64) error
}

func (s *stubLessonService) Create(ctx context.Context, in ports.CreateLessonInput) (*domain.Lesson, error) {
	return s.createFn(ctx, in)
}

func (s *stubLessonService) Get(ctx context.Context, id int64) (*domain.Lesson, error) {
	return s.getFn(ctx, id)
}

func (s *stubLessonService) List(ctx context.Context, f ports.LessonFilter) (*ports.LessonPage, error) {
	return s.listFn(ctx, f)
}

func (s *stubLessonService) Update(ctx context.Context, in ports.UpdateLessonInput) (*domain.Lesson, error) {
	return s.updateFn(ctx, in)
}

func (s *stubLessonService) Delete(ctx context.Context, actorID, lessonID int64) error {
	return s.deleteFn(ctx, actorID, lessonID)
}

type stubInvitationService struct {
	createFn  func(ctx context.Context, in ports.CreateInvitationInput) (*domain.Invitation, error)
	acceptFn  func(ctx context.Context, in ports.AcceptInvitationInput) (*domain.Invitation, error)
	declineFn func(ctx context.Context, in ports.DeclineInvitationInput) (*domain.Invitation, error)
	listFn    func(ctx context.Context, f ports.InvitationFilter) ([]*domain.Invitation, error)
}

func (s *stubInvitationService) Create(ctx context.Context, in ports.CreateInvitationInput) (*domain.Invitation, error) {
	return s.createFn(ctx, in)
}

func (s *stubInvitationService) Accept(ctx context.Context, in ports.AcceptInvitationInput) (*domain.Invitation, error) {
	return s.acceptFn(ctx, in)
}

func (s *stubInvitationService) Decline(ctx context.Context, in ports.DeclineInvitationInput) (*domain.Invitation, error) {
	return s.declineFn(ctx, in)
}

func (s *stubInvitationService) List(ctx context.Context, f ports.InvitationFilter) ([]*domain.Invitation, error) {
	return s.listFn(ctx, f)
}

// newContext builds an echo context for target. A nil principal leaves the
// request unauthenticated. Path params are given as name, value pairs.
func newContext(method, target, body string, p *domain.Principal, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if p != nil {
		c.Set(middleware.PrincipalKey, p)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func alice() *domain.Principal {
	return &domain.Principal{UserID: 9, Email: "alice@example.com", Role: domain.RoleInstructor, SessionID: "s-alice"}
}
