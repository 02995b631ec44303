package handler

import (
	"time"

	"github.com/fleetdesk/portal/internal/core/domain"
	"github.com/fleetdesk/portal/internal/core/ports"
)

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password" validate:"required"`
}

type sessionResponse struct {
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type listQuery struct {
	Page    int    `query:"page" validate:"omitempty,min=1"`
	PerPage int    `query:"per_page" validate:"omitempty,min=1,max=100"`
	Search  string `query:"search" validate:"omitempty,max=255"`
	Sort    string `query:"sort" validate:"omitempty,max=64"`
}

func (q listQuery) toPort() ports.ListQuery {
	return ports.ListQuery{Page: q.Page, PerPage: q.PerPage, Search: q.Search, Sort: q.Sort}
}
