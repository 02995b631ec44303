package domain

import "time"

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"
)

// AuditEvent records a state-changing action performed through the portal.
type AuditEvent struct {
	ID         string
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	At         time.Time
}

// Key groups events that must be persisted in order.
func (e AuditEvent) Key() string {
	return e.Resource + ":" + e.ResourceID
}
