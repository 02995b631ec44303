package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/ports"
)

// ResourceService forwards resource operations to the backend with the
// session's bearer token and audits successful mutations.
type ResourceService[T domain.Record] struct {
	name   string
	client ports.ResourceClient[T]
	audit  ports.AuditSink
	log    zerolog.Logger
}

func NewResourceService[T domain.Record](name string, client ports.ResourceClient[T], audit ports.AuditSink, log zerolog.Logger) *ResourceService[T] {
	return &ResourceService[T]{
		name:   name,
		client: client,
		audit:  audit,
		log:    log.With().Str("resource", name).Logger(),
	}
}

// Name is the resource path segment.
func (s *ResourceService[T]) Name() string { return s.name }

func (s *ResourceService[T]) List(ctx context.Context, session *domain.Session, q ports.ListQuery) ([]T, error) {
	if session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return s.client.List(ctx, session.Token, q)
}

func (s *ResourceService[T]) Get(ctx context.Context, session *domain.Session, id string) (*T, error) {
	if session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return s.client.Get(ctx, session.Token, id)
}

func (s *ResourceService[T]) Create(ctx context.Context, session *domain.Session, payload T) (*T, error) {
	if session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	created, err := s.client.Create(ctx, session.Token, payload)
	if err != nil {
		return nil, err
	}

	id := strconv.FormatInt((*created).RecordID(), 10)
	s.record(session, domain.AuditActionCreate, id)
	return created, nil
}

func (s *ResourceService[T]) Update(ctx context.Context, session *domain.Session, id string, payload T) (*T, error) {
	if session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	updated, err := s.client.Update(ctx, session.Token, id, payload)
	if err != nil {
		return nil, err
	}

	s.record(session, domain.AuditActionUpdate, id)
	return updated, nil
}

func (s *ResourceService[T]) Delete(ctx context.Context, session *domain.Session, id string) error {
	if session == nil {
		return domain.ErrNotAuthenticated
	}
	if err := s.client.Delete(ctx, session.Token, id); err != nil {
		return err
	}

	s.record(session, domain.AuditActionDelete, id)
	return nil
}

func (s *ResourceService[T]) record(session *domain.Session, action, id string) {
	s.audit.Enqueue(domain.AuditEvent{
		ID:         uuid.NewString(),
		Actor:      actor(session),
		Action:     action,
		Resource:   s.name,
		ResourceID: id,
		At:         time.Now().UTC(),
	})
	s.log.Info().Str("action", action).Str("id", id).Str("actor", actor(session)).Msg("resource mutated")
}
