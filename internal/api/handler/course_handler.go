package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

type CourseHandler struct {
	courses ports.CourseService
	lessons ports.LessonService
}

func NewCourseHandler(courses ports.CourseService, lessons ports.LessonService) *CourseHandler {
	return &CourseHandler{courses: courses, lessons: lessons}
}

// Create adds a course owned by the caller.
//
// @Summary      Create a course
// @Tags         courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCourseRequest  true  "Course"
// @Success      201   {object}  domain.Course
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req createCourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := actingAs(p, req.CreatorID); err != nil {
		return err
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return err
	}

	course, err := h.courses.Create(c.Request().Context(), ports.CreateCourseInput{
		ActorID:     p.UserID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

// List returns courses with optional filters.
//
// @Summary      List courses
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        creator_id  query     int     false  "Creator"
// @Param        member_id   query     int     false  "Creator or instructor"
// @Param        q           query     string  false  "Search in name and description"
// @Param        _page       query     int     false  "Page (1-based)"
// @Param        _limit      query     int     false  "Page size (max 100)"
// @Success      200         {array}   domain.Course
// @Header       200         {string}  X-Total-Count  "Total matches"
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Router       /courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	var (
		f   ports.CourseFilter
		err error
	)
	if f.CreatorID, err = queryID(c, "creator_id"); err != nil {
		return err
	}
	if f.MemberID, err = queryID(c, "member_id"); err != nil {
		return err
	}
	if f.Page, err = queryInt(c, "_page"); err != nil {
		return err
	}
	if f.Limit, err = queryInt(c, "_limit"); err != nil {
		return err
	}
	f.Query = c.QueryParam("q")

	page, err := h.courses.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	setTotalCount(c, page.Total)
	return c.JSON(http.StatusOK, page.Items)
}

// Get returns one course.
//
// @Summary      Get a course
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Course id"
// @Success      200  {object}  domain.Course
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.courses.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Update edits a course. Only its creator may do so.
//
// @Summary      Update a course
// @Tags         courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Course id"
// @Param        body  body      updateCourseRequest  true  "Fields to change"
// @Success      200   {object}  domain.Course
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /courses/{id} [patch]
func (h *CourseHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateCourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateCourseInput{
		ActorID:     p.UserID,
		CourseID:    id,
		Name:        req.Name,
		Description: req.Description,
	}
	if in.StartDate, err = parseOptionalDate("start_date", req.StartDate); err != nil {
		return err
	}
	if in.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		return err
	}

	course, err := h.courses.Update(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Delete removes a course with its lessons and invitations.
//
// @Summary      Delete a course
// @Tags         courses
// @Security     BearerAuth
// @Param        id   path  int  true  "Course id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /courses/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.courses.Delete(c.Request().Context(), p.UserID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddInstructor adds an existing user to the course's instructors.
//
// @Summary      Add an instructor
// @Tags         courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Course id"
// @Param        body  body      addInstructorRequest  true  "User to add"
// @Success      200   {object}  domain.Course
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /courses/{id}/instructors [post]
func (h *CourseHandler) AddInstructor(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req addInstructorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	course, err := h.courses.AddInstructor(c.Request().Context(), p.UserID, id, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// RemoveInstructor drops a co-instructor. The creator cannot be removed.
//
// @Summary      Remove an instructor
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int  true  "Course id"
// @Param        userId  path      int  true  "User to remove"
// @Success      200     {object}  domain.Course
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Router       /courses/{id}/instructors/{userId} [delete]
func (h *CourseHandler) RemoveInstructor(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathID(c, "userId")
	if err != nil {
		return err
	}

	course, err := h.courses.RemoveInstructor(c.Request().Context(), p.UserID, id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Lessons lists the lessons of one course.
//
// @Summary      List course lessons
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      int     true   "Course id"
// @Param        title_like  query     string  false  "Title substring"
// @Param        status      query     string  false  "draft, published or archived"
// @Param        _sort       query     string  false  "id, title, publish_date or created_at"
// @Param        _order      query     string  false  "asc or desc"
// @Param        _page       query     int     false  "Page (1-based)"
// @Param        _limit      query     int     false  "Page size (max 100)"
// @Success      200         {array}   domain.Lesson
// @Header       200         {string}  X-Total-Count  "Total matches"
// @Failure      401         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /courses/{id}/lessons [get]
func (h *CourseHandler) Lessons(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.courses.Get(c.Request().Context(), id); err != nil {
		return err
	}

	f, err := lessonFilter(c)
	if err != nil {
		return err
	}
	f.CourseID = id
	return listLessons(c, h.lessons, f)
}
