package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/api/handler"
	"github.com/fleetdesk/portal/internal/backend"
	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/service"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func (s *memStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type discardAudit struct{}

func (discardAudit) Enqueue(domain.AuditEvent) {}

// fakeBackend mimics the REST backend: a cookie handshake, login for two
// accounts and a cars resource.
func fakeBackend(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	userPosts := 0
	mux := http.NewServeMux()

	mux.HandleFunc("GET /sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "sess"})
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok%3D%3D"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-XSRF-TOKEN") != "tok==" {
			w.WriteHeader(419)
			return
		}
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case body.Email == "admin@example.com" && body.Password == "secret":
			_, _ = w.Write([]byte(`{"token":"1|admin","user":{"id":1,"name":"Admin","email":"admin@example.com","role":"admin"}}`))
		case body.Email == "bob@example.com" && body.Password == "secret":
			_, _ = w.Write([]byte(`{"token":"2|bob","user":{"id":2,"name":"Bob","email":"bob@example.com","role":"user"}}`))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"These credentials do not match our records.","errors":{"email":["These credentials do not match our records."]}}`))
		}
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /cars", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"brand":"Skoda","model":"Octavia","registration_number":"KR 12345"}]}`))
	})
	mux.HandleFunc("POST /cars", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"registration_number":["The registration number field is required."]}}`))
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		userPosts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":3,"name":"Carol","email":"carol@example.com","role":"user"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &userPosts
}

func newTestRouter(t *testing.T) (*echo.Echo, *int) {
	t.Helper()
	srv, userPosts := fakeBackend(t)
	log := zerolog.Nop()
	client := backend.NewClient(backend.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, log)
	store := &memStore{sessions: make(map[string]domain.Session)}
	audit := discardAudit{}

	svc := Services{
		Auth:           service.NewAuthService(client, store, audit, "test-secret", time.Hour, log),
		Users:          service.NewResourceService[domain.User]("users", client.Users(), audit, log),
		Cars:           service.NewResourceService[domain.Car]("cars", client.Cars(), audit, log),
		FuelPrices:     service.NewResourceService[domain.FuelPrice]("fuel-prices", client.FuelPrices(), audit, log),
		TravelPurposes: service.NewResourceService[domain.TravelPurposeDictionary]("travel-purpose-dictionaries", client.TravelPurposes(), audit, log),
		Laws:           service.NewResourceService[domain.Law]("laws", client.Laws(), audit, log),
		Addresses:      service.NewResourceService[domain.Address]("addresses", client.Addresses(), audit, log),
	}
	e := NewRouter(svc, Options{
		SessionSecret: "test-secret",
		Cookie:        handler.CookieConfig{Name: "portal_session"},
		Checks:        map[string]handler.Check{"backend": client.Ping},
		Registry:      prometheus.NewRegistry(),
		Log:           log,
	})
	return e, userPosts
}

func serve(e *echo.Echo, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo, email string) *http.Cookie {
	t.Helper()
	rec := serve(e, http.MethodPost, "/auth/login", `{"identifier":"`+email+`","password":"secret"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "portal_session" {
			return ck
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return nil
}

func TestRouter_PagesRequireLogin(t *testing.T) {
	e, _ := newTestRouter(t)

	for _, target := range []string{"/api/cars", "/api/users", "/api/laws/1", "/auth/me"} {
		rec := serve(e, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "login required") {
			t.Errorf("%s: expected 401 login required, got %d %s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_LoginThenFetch(t *testing.T) {
	e, _ := newTestRouter(t)
	cookie := login(t, e, "admin@example.com")

	rec := serve(e, http.MethodGet, "/api/cars", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cars []domain.Car
	if err := json.Unmarshal(rec.Body.Bytes(), &cars); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(cars) != 1 || cars[0].Brand != "Skoda" {
		t.Fatalf("unexpected cars: %+v", cars)
	}

	rec = serve(e, http.MethodGet, "/auth/me", "", cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "admin@example.com") {
		t.Fatalf("unexpected profile: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RejectedLogin(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/auth/login", `{"identifier":"admin@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error != "invalid credentials" || len(body.Errors["email"]) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no cookie may be set on a rejected login")
	}
}

func TestRouter_BackendValidationErrors(t *testing.T) {
	e, _ := newTestRouter(t)
	cookie := login(t, e, "bob@example.com")

	rec := serve(e, http.MethodPost, "/api/cars", `{"brand":"Skoda"}`, cookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Errors) != 1 || body.Errors["registration_number"] == nil {
		t.Fatalf("expected exactly the backend field keys, got %+v", body.Errors)
	}
}

func TestRouter_UserMutationsRequireAdmin(t *testing.T) {
	e, userPosts := newTestRouter(t)
	payload := `{"name":"Carol","email":"carol@example.com","role":"user"}`

	rec := serve(e, http.MethodPost, "/api/users", payload, login(t, e, "bob@example.com"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a regular user, got %d", rec.Code)
	}
	if *userPosts != 0 {
		t.Fatal("backend must not be called when the role gate rejects")
	}

	rec = serve(e, http.MethodPost, "/api/users", payload, login(t, e, "admin@example.com"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for an admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_LogoutEndsSession(t *testing.T) {
	e, _ := newTestRouter(t)
	cookie := login(t, e, "bob@example.com")

	rec := serve(e, http.MethodPost, "/auth/logout", "", cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = serve(e, http.MethodGet, "/api/cars", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old cookie must not work after logout, got %d", rec.Code)
	}
}

func TestRouter_Operational(t *testing.T) {
	e, _ := newTestRouter(t)

	if rec := serve(e, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	// The fake backend has no health route, so readiness is degraded.
	if rec := serve(e, http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503, got %d", rec.Code)
	}
	rec := serve(e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "portal_http_requests_total") {
		t.Fatalf("metrics: unexpected response %d", rec.Code)
	}
}
