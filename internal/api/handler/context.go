package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// ctxSession returns the session attached by the Session middleware.
// Every page handler calls it before touching a service, so a missing or
// expired login is answered with 401 by the handler itself.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s, _ := c.Get("session").(*domain.Session)
	if s == nil || s.Token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
	}
	return s, nil
}
