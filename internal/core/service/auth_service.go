package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/api/metrics"
	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/ports"
)

const defaultSessionTTL = 8 * time.Hour

// AuthService implements login, logout and session lookup.
type AuthService struct {
	exchanger ports.CredentialExchanger
	store     ports.SessionStore
	audit     ports.AuditSink
	secret    []byte
	ttl       time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	exchanger ports.CredentialExchanger,
	store ports.SessionStore,
	audit ports.AuditSink,
	secret string,
	ttl time.Duration,
	log zerolog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AuthService{
		exchanger: exchanger,
		store:     store,
		audit:     audit,
		secret:    []byte(secret),
		ttl:       ttl,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login exchanges the credentials with the backend, stores a new session
// and returns the signed cookie token for it. A failed exchange is always
// returned as an error, never as a partially filled session.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, *domain.Session, error) {
	if identifier == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	creds, err := s.exchanger.Exchange(ctx, identifier, password)
	if err != nil {
		result := loginResult(err)
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		s.log.Warn().Err(err).Str("identifier", identifier).Str("result", result).Msg("login failed")
		return "", nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Token:     creds.Token,
		User:      creds.User,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, session); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.signCookie(session)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		_ = s.store.Delete(ctx, session.ID)
		return "", nil, fmt.Errorf("sign session cookie: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.Enqueue(domain.AuditEvent{
		ID:         uuid.NewString(),
		Actor:      actor(session),
		Action:     domain.AuditActionLogin,
		Resource:   "session",
		ResourceID: session.ID,
		At:         now,
	})
	s.log.Info().Str("user", session.User.Email).Str("role", session.User.Role).Msg("user logged in")

	return token, session, nil
}

// Logout revokes the backend token (best effort) and deletes the session.
func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrNotAuthenticated
	}

	if err := s.exchanger.Logout(ctx, session.Token); err != nil {
		s.log.Warn().Err(err).Str("session", session.ID).Msg("backend logout failed")
	}
	if err := s.store.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.audit.Enqueue(domain.AuditEvent{
		ID:         uuid.NewString(),
		Actor:      actor(session),
		Action:     domain.AuditActionLogout,
		Resource:   "session",
		ResourceID: session.ID,
		At:         s.now(),
	})
	return nil
}

// Session returns a live session. Expired sessions are removed.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.now()) {
		_ = s.store.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *AuthService) signCookie(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid":  session.ID,
		"sub":  strconv.FormatInt(session.User.ID, 10),
		"role": session.User.Role,
		"iat":  session.CreatedAt.Unix(),
		"exp":  session.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrHandshakeFailed):
		return "handshake_failed"
	default:
		return "error"
	}
}

func actor(s *domain.Session) string {
	if s.User.Email != "" {
		return s.User.Email
	}
	return strconv.FormatInt(s.User.ID, 10)
}
