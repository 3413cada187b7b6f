package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
	"github.com/coursesphere/coursesphere-api/internal/core/ports"
)

type InvitationHandler struct {
	invitations ports.InvitationService
}

func NewInvitationHandler(invitations ports.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// Create invites a registered user to co-teach a course. The response carries
// the invitation token; it is never shown again.
//
// @Summary      Invite a co-instructor
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createInvitationRequest  true  "Invitation"
// @Success      200   {object}  domain.Invitation
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /invitations [post]
func (h *InvitationHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req createInvitationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := actingAs(p, req.InviterID); err != nil {
		return err
	}

	inv, err := h.invitations.Create(c.Request().Context(), ports.CreateInvitationInput{
		CourseID:  req.CourseID,
		Email:     req.Email,
		InviterID: p.UserID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, inv)
}

// List returns invitations matching the filters. Tokens are never included.
//
// @Summary      List invitations
// @Tags         invitations
// @Produce      json
// @Security     BearerAuth
// @Param        email      query     string  false  "Invitee email"
// @Param        status     query     string  false  "pending, accepted or declined"
// @Param        course_id  query     int     false  "Course"
// @Success      200        {array}   domain.Invitation
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Router       /invitations [get]
func (h *InvitationHandler) List(c echo.Context) error {
	f := ports.InvitationFilter{
		Email:  c.QueryParam("email"),
		Status: c.QueryParam("status"),
	}
	var err error
	if f.CourseID, err = queryID(c, "course_id"); err != nil {
		return err
	}

	items, err := h.invitations.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Accept joins the caller to the invited course.
//
// @Summary      Accept an invitation
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                       true   "Invitation id"
// @Param        body  body      resolveInvitationRequest  false  "Optional token"
// @Success      200   {object}  resolveInvitationResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /invitations/{id}/accept [post]
func (h *InvitationHandler) Accept(c echo.Context) error {
	p, id, req, err := h.resolveRequest(c)
	if err != nil {
		return err
	}

	inv, err := h.invitations.Accept(c.Request().Context(), ports.AcceptInvitationInput{
		InvitationID: id,
		Email:        p.Email,
		Token:        req.Token,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolveInvitationResponse{OK: true, Invitation: inv})
}

// Decline turns an invitation down. The invitee or the inviter may decline.
//
// @Summary      Decline an invitation
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                       true   "Invitation id"
// @Param        body  body      resolveInvitationRequest  false  "Optional token"
// @Success      200   {object}  resolveInvitationResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /invitations/{id}/decline [post]
func (h *InvitationHandler) Decline(c echo.Context) error {
	p, id, req, err := h.resolveRequest(c)
	if err != nil {
		return err
	}

	inv, err := h.invitations.Decline(c.Request().Context(), ports.DeclineInvitationInput{
		InvitationID: id,
		ActorID:      p.UserID,
		ActorEmail:   p.Email,
		Token:        req.Token,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolveInvitationResponse{OK: true, Invitation: inv})
}

// resolveRequest reads the principal, the path id and the optional body shared
// by accept and decline. An email in the body must be the caller's own.
func (h *InvitationHandler) resolveRequest(c echo.Context) (*domain.Principal, int64, resolveInvitationRequest, error) {
	var req resolveInvitationRequest
	p, err := ctxPrincipal(c)
	if err != nil {
		return nil, 0, req, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return nil, 0, req, err
	}
	if err := c.Bind(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email != "" && req.Email != p.Email {
		return nil, 0, req, domain.ErrForbidden
	}
	return p, id, req, nil
}
