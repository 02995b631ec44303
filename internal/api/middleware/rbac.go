package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// RBAC lets the request through only when the attached session's role is
// one of allowedRoles.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, _ := c.Get("session").(*domain.Session)
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
			}
			if _, ok := allowed[session.User.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
