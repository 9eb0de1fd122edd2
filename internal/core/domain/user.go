package domain

import "time"

// Role is the coarse permission class attached to every user.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User models a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the caller identity resolved from a bearer token. Role is
// always the value currently stored for the user, not the one at issuance.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
	Token    Identity
}
