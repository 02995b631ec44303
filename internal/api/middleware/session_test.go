package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/core/domain"
)

type stubLookup struct {
	sessions map[string]*domain.Session
	asked    []string
}

func (l *stubLookup) Session(_ context.Context, id string) (*domain.Session, error) {
	l.asked = append(l.asked, id)
	s, ok := l.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func signed(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func newLookup() *stubLookup {
	return &stubLookup{sessions: map[string]*domain.Session{
		"sess-1": {ID: "sess-1", Token: "1|backend", User: domain.User{ID: 7, Role: domain.RoleAdmin}},
	}}
}

// run passes req through the Session middleware and returns what the next
// handler saw under "session".
func run(t *testing.T, lookup SessionLookup, req *http.Request) *domain.Session {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.Session
	called := false
	h := Session("secret", "portal_session", lookup, zerolog.Nop())(func(c echo.Context) error {
		called = true
		seen, _ = c.Get("session").(*domain.Session)
		if c.Get("role") != nil {
			t.Error("role must be read from the session, not a separate context key")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("next must always be called")
	}
	return seen
}

func TestSession_FromCookie(t *testing.T) {
	lookup := newLookup()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: signed(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "sess-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})})

	s := run(t, lookup, req)
	if s == nil || s.ID != "sess-1" {
		t.Fatalf("expected session to be attached, got %+v", s)
	}
}

func TestSession_FromBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{"sid": "sess-1"}))

	if s := run(t, newLookup(), req); s == nil {
		t.Fatal("expected session from Authorization header")
	}
}

func TestSession_NotAttached(t *testing.T) {
	cases := map[string]func(*http.Request){
		"no credentials": func(*http.Request) {},
		"garbage cookie": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "portal_session", Value: "not-a-token"})
		},
		"wrong secret": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "portal_session", Value: signed(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"sid": "sess-1"})})
		},
		"wrong algorithm": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "portal_session", Value: signed(t, "secret", jwt.SigningMethodHS512, jwt.MapClaims{"sid": "sess-1"})})
		},
		"expired token": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "portal_session", Value: signed(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
				"sid": "sess-1",
				"exp": time.Now().Add(-time.Minute).Unix(),
			})})
		},
		"missing sid": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "portal_session", Value: signed(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"})})
		},
		"unknown session": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "portal_session", Value: signed(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{"sid": "gone"})})
		},
		"basic auth": func(r *http.Request) {
			r.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")
		},
	}

	for name, prepare := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		prepare(req)
		if s := run(t, newLookup(), req); s != nil {
			t.Errorf("%s: session must not be attached, got %+v", name, s)
		}
	}
}

func TestSession_InvalidTokenSkipsLookup(t *testing.T) {
	lookup := newLookup()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "not-a-token"})

	run(t, lookup, req)
	if len(lookup.asked) != 0 {
		t.Fatalf("store must not be queried for an unverified token, got %v", lookup.asked)
	}
}
