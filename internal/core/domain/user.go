package domain

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the backend user profile. Password is only sent on create/update
// and is never echoed back by the backend.
type User struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Password  string `json:"password,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// IsAdmin reports whether the profile may see administrative actions.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
