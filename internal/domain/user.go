package domain

import "time"

// Role represents the privilege level of an account.
type Role string

const (
	RoleReader    Role = "READER"
	RoleAuthor    Role = "AUTHOR"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// IsManagement reports whether the role carries elevated privileges.
func (r Role) IsManagement() bool {
	return r == RoleModerator || r == RoleAdmin
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive      UserStatus = "ACTIVE"
	UserStatusDeactivated UserStatus = "DEACTIVATED"
)

// User is the read-only directory view of an account.
type User struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	Role          Role
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
