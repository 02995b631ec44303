package ports

import (
	"context"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// AuthService turns backend credentials into portal sessions.
type AuthService interface {
	// Login returns the signed cookie token and the stored session.
	Login(ctx context.Context, identifier, password string) (string, *domain.Session, error)
	Logout(ctx context.Context, session *domain.Session) error
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}
