package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursesphere/coursesphere-api/internal/api/middleware"
	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// HeaderTotalCount carries the unpaginated size of a list response.
const HeaderTotalCount = "X-Total-Count"

// ctxPrincipal extracts the principal injected by the Auth middleware. Its
// absence means the route was mounted without auth, which is a 401.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := c.Get(middleware.PrincipalKey).(*domain.Principal)
	if !ok || p == nil || p.UserID <= 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// actingAs checks a client-supplied actor id against the principal. Zero
// means the client did not send one.
func actingAs(p *domain.Principal, claimed int64) error {
	if claimed != 0 && claimed != p.UserID {
		return domain.ErrForbidden
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.NewValidationError(name + " must be a non-negative integer")
	}
	return v, nil
}

func queryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.NewValidationError(name + " must be a positive integer")
	}
	return v, nil
}

// parseDate accepts a calendar date (YYYY-MM-DD, midnight UTC) or an RFC 3339
// timestamp.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.NewValidationError(field + " must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

func setTotalCount(c echo.Context, total int64) {
	c.Response().Header().Set(HeaderTotalCount, strconv.FormatInt(total, 10))
}
