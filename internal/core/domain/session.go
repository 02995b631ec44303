package domain

import "time"

// Credentials is the result of a successful credential exchange.
type Credentials struct {
	Token string
	User  User
}

// Session binds a browser session id to the backend bearer token.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has outlived its TTL.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
