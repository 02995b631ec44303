package ports

import (
	"context"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// SessionStore persists sessions for their TTL.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
