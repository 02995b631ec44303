package ports

import (
	"context"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// ResourceService runs resource operations on behalf of a session.
type ResourceService[T any] interface {
	Name() string
	List(ctx context.Context, s *domain.Session, q ListQuery) ([]T, error)
	Get(ctx context.Context, s *domain.Session, id string) (*T, error)
	Create(ctx context.Context, s *domain.Session, payload T) (*T, error)
	Update(ctx context.Context, s *domain.Session, id string, payload T) (*T, error)
	Delete(ctx context.Context, s *domain.Session, id string) error
}
