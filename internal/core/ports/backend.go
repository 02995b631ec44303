package ports

import (
	"context"

	"github.com/fleetdesk/portal/internal/core/domain"
)

// CredentialExchanger performs the backend's CSRF handshake and login.
type CredentialExchanger interface {
	Exchange(ctx context.Context, identifier, password string) (*domain.Credentials, error)
	Logout(ctx context.Context, token string) error
}

// ListQuery carries the list parameters forwarded to the backend.
// Zero values are omitted from the request.
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	Sort    string
}

// ResourceClient is the authenticated fetch wrapper for one REST resource.
// Every call fails with domain.ErrMissingToken when token is empty.
type ResourceClient[T any] interface {
	List(ctx context.Context, token string, q ListQuery) ([]T, error)
	Get(ctx context.Context, token, id string) (*T, error)
	Create(ctx context.Context, token string, payload T) (*T, error)
	Update(ctx context.Context, token, id string, payload T) (*T, error)
	Delete(ctx context.Context, token, id string) error
}
