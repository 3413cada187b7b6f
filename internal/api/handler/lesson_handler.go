package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

type LessonHandler struct {
	lessons ports.LessonService
}

func NewLessonHandler(lessons ports.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// Create adds a lesson to a course the caller teaches.
//
// @Summary      Create a lesson
// @Tags         lessons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLessonRequest  true  "Lesson"
// @Success      201   {object}  domain.Lesson
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /lessons [post]
func (h *LessonHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req createLessonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := actingAs(p, req.CreatorID); err != nil {
		return err
	}
	publish, err := parseDate("publish_date", req.PublishDate)
	if err != nil {
		return err
	}

	lesson, err := h.lessons.Create(c.Request().Context(), ports.CreateLessonInput{
		ActorID:     p.UserID,
		CourseID:    req.CourseID,
		Title:       req.Title,
		Status:      req.Status,
		PublishDate: publish,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lesson)
}

// List returns lessons with optional filters, sorting and paging.
//
// @Summary      List lessons
// @Tags         lessons
// @Produce      json
// @Security     BearerAuth
// @Param        course_id   query     int     false  "Course"
// @Param        title_like  query     string  false  "Title substring"
// @Param        status      query     string  false  "draft, published or archived"
// @Param        _sort       query     string  false  "id, title, publish_date or created_at"
// @Param        _order      query     string  false  "asc or desc"
// @Param        _page       query     int     false  "Page (1-based)"
// @Param        _limit      query     int     false  "Page size (max 100)"
// @Success      200         {array}   domain.Lesson
// @Header       200         {string}  X-Total-Count  "Total matches"
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Router       /lessons [get]
func (h *LessonHandler) List(c echo.Context) error {
	f, err := lessonFilter(c)
	if err != nil {
		return err
	}
	if f.CourseID, err = queryID(c, "course_id"); err != nil {
		return err
	}
	return listLessons(c, h.lessons, f)
}

// Get returns one lesson.
//
// @Summary      Get a lesson
// @Tags         lessons
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Lesson id"
// @Success      200  {object}  domain.Lesson
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /lessons/{id} [get]
func (h *LessonHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	lesson, err := h.lessons.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lesson)
}

// Update edits a lesson. Its author and the course creator may do so.
//
// @Summary      Update a lesson
// @Tags         lessons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Lesson id"
// @Param        body  body      updateLessonRequest  true  "Fields to change"
// @Success      200   {object}  domain.Lesson
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /lessons/{id} [patch]
func (h *LessonHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateLessonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateLessonInput{
		ActorID:  p.UserID,
		LessonID: id,
		Title:    req.Title,
		Status:   req.Status,
		VideoURL: req.VideoURL,
	}
	if in.PublishDate, err = parseOptionalDate("publish_date", req.PublishDate); err != nil {
		return err
	}

	lesson, err := h.lessons.Update(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lesson)
}

// Delete removes a lesson.
//
// @Summary      Delete a lesson
// @Tags         lessons
// @Security     BearerAuth
// @Param        id   path  int  true  "Lesson id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /lessons/{id} [delete]
func (h *LessonHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.lessons.Delete(c.Request().Context(), p.UserID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// lessonFilter reads the listing parameters shared by /lessons and
// /courses/:id/lessons.
func lessonFilter(c echo.Context) (ports.LessonFilter, error) {
	var (
		f   ports.LessonFilter
		err error
	)
	f.TitleLike = c.QueryParam("title_like")
	f.Status = c.QueryParam("status")
	f.Sort = c.QueryParam("_sort")

	switch c.QueryParam("_order") {
	case "", "asc":
	case "desc":
		f.Desc = true
	default:
		return f, domain.NewValidationError("_order must be asc or desc")
	}

	if f.Page, err = queryInt(c, "_page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "_limit"); err != nil {
		return f, err
	}
	return f, nil
}

func listLessons(c echo.Context, lessons ports.LessonService, f ports.LessonFilter) error {
	page, err := lessons.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	setTotalCount(c, page.Total)
	return c.JSON(http.StatusOK, page.Items)
}
