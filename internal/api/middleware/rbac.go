package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

// RBAC rejects callers whose role is not in the allow set. This is the coarse
// route-level gate; the service layer re-checks every operation against the
// grant table, so a missing RBAC wrapper fails closed rather than open.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
