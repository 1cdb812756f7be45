package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// ctxActor extracts the authenticated actor injected by the Auth middleware
// and fast-fails before any service call:
//   - role must be a known role (presence proves the middleware ran).
//   - user_id must be set; a token without a subject is structurally valid
//     but operationally unusable, so reject with 401.
func ctxActor(c echo.Context) (domain.Actor, error) {
	roleStr, _ := c.Get("role").(string)
	role := domain.Role(roleStr)
	if !domain.ValidRole(role) {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	userID, _ := c.Get("user_id").(int64)
	if userID == 0 {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}

	return domain.Actor{UserID: userID, Role: role}, nil
}

// pathID parses a numeric path parameter, rejecting anything non-positive.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}
