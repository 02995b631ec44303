package middleware

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// SessionLookup resolves a session id to a live session.
type SessionLookup interface {
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Session reads the signed session cookie (or an Authorization bearer
// header carrying the same token), verifies it and attaches the stored
// session to the context under "session". It never rejects a request:
// handlers decide whether a session is required.
func Session(secret, cookieName string, lookup SessionLookup, log zerolog.Logger) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := sessionToken(c, cookieName)
			if raw == "" {
				return next(c)
			}

			sid, err := parseSessionID(raw, key)
			if err != nil {
				log.Debug().Err(err).Msg("ignoring invalid session token")
				return next(c)
			}

			session, err := lookup.Session(c.Request().Context(), sid)
			if err != nil {
				log.Debug().Err(err).Str("session", sid).Msg("session not available")
				return next(c)
			}

			c.Set("session", session)
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func parseSessionID(raw string, key []byte) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !tkn.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sid, nil
}
